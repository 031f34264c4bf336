package tech

import (
	"fmt"
	"slices"
	"strings"

	"github.com/hay-kot/criterio"

	"github.com/colonyops/techtrack/internal/core/validate"
)

// NewItem holds the user-supplied fields for a new item.
type NewItem struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Difficulty  Difficulty `json:"difficulty"`

	EstimatedHours float64  `json:"estimatedHours,omitempty"`
	Prerequisites  []string `json:"prerequisites,omitempty"`
	LearningGoals  []string `json:"learningGoals,omitempty"`
	Resources      []string `json:"resources,omitempty"`
	Language       string   `json:"language,omitempty"`
	Stars          int      `json:"stars,omitempty"`
}

// Validate checks the required fields of a new item.
func (n NewItem) Validate() error {
	return invalid(criterio.ValidateStruct(
		validate.TitleField("title", n.Title),
		criterio.Run("difficulty", string(n.Difficulty), optionalDifficulty),
	))
}

// Build turns the fields into an item with the given id, status not-started
// and no notes. Category and difficulty fall back to their defaults.
func (n NewItem) Build(id ID) Item {
	category := strings.TrimSpace(n.Category)
	if category == "" {
		category = DefaultCategory
	}
	difficulty := n.Difficulty
	if difficulty == "" {
		difficulty = DifficultyBeginner
	}

	return Item{
		ID:             id,
		Title:          strings.TrimSpace(n.Title),
		Description:    n.Description,
		Category:       category,
		Difficulty:     difficulty,
		Status:         StatusNotStarted,
		Notes:          []Note{},
		EstimatedHours: n.EstimatedHours,
		Prerequisites:  slices.Clone(n.Prerequisites),
		LearningGoals:  slices.Clone(n.LearningGoals),
		Resources:      slices.Clone(n.Resources),
		Language:       n.Language,
		Stars:          n.Stars,
	}
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Title       *string     `json:"title,omitempty"`
	Description *string     `json:"description,omitempty"`
	Category    *string     `json:"category,omitempty"`
	Difficulty  *Difficulty `json:"difficulty,omitempty"`
	Status      *Status     `json:"status,omitempty"`

	EstimatedHours *float64  `json:"estimatedHours,omitempty"`
	Prerequisites  *[]string `json:"prerequisites,omitempty"`
	LearningGoals  *[]string `json:"learningGoals,omitempty"`
	Resources      *[]string `json:"resources,omitempty"`
	Language       *string   `json:"language,omitempty"`
	Stars          *int      `json:"stars,omitempty"`
}

// IsZero reports whether the patch changes nothing.
func (p Patch) IsZero() bool {
	return p == Patch{}
}

// Validate checks every field the patch sets.
func (p Patch) Validate() error {
	var errs criterio.FieldErrorsBuilder
	if p.Title != nil {
		if err := validate.Title(*p.Title); err != nil {
			errs = errs.Append("title", err)
		}
	}
	if p.Difficulty != nil && !p.Difficulty.IsValid() {
		errs = errs.Append("difficulty", fmt.Errorf("invalid difficulty %q", *p.Difficulty))
	}
	if p.Status != nil && !p.Status.IsValid() {
		errs = errs.Append("status", fmt.Errorf("invalid status %q", *p.Status))
	}
	return invalid(errs.ToError())
}

// Apply returns a copy of it with the patch merged in.
func (p Patch) Apply(it Item) Item {
	out := it.Clone()
	if p.Title != nil {
		out.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.Category != nil {
		out.Category = *p.Category
	}
	if p.Difficulty != nil {
		out.Difficulty = *p.Difficulty
	}
	if p.Status != nil {
		out.Status = *p.Status
	}
	if p.EstimatedHours != nil {
		out.EstimatedHours = *p.EstimatedHours
	}
	if p.Prerequisites != nil {
		out.Prerequisites = slices.Clone(*p.Prerequisites)
	}
	if p.LearningGoals != nil {
		out.LearningGoals = slices.Clone(*p.LearningGoals)
	}
	if p.Resources != nil {
		out.Resources = slices.Clone(*p.Resources)
	}
	if p.Language != nil {
		out.Language = *p.Language
	}
	if p.Stars != nil {
		out.Stars = *p.Stars
	}
	return out
}

// ValidateStatus rejects unknown statuses.
func ValidateStatus(s Status) error {
	return invalid(criterio.Run("status", string(s), func(v string) error {
		if !Status(v).IsValid() {
			return fmt.Errorf("invalid status %q", v)
		}
		return nil
	}))
}

// ValidateNoteText rejects empty note text.
func ValidateNoteText(text string) error {
	return invalid(validate.NoteTextField("text", text))
}

func optionalDifficulty(d string) error {
	if d == "" || Difficulty(d).IsValid() {
		return nil
	}
	return fmt.Errorf("invalid difficulty %q", d)
}
