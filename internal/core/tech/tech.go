// Package tech defines the tracked technology domain model: items, their
// checklist notes, and the rules that couple an item's status to its notes.
package tech

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Status represents how far along the user is with a technology.
type Status string

const (
	StatusNotStarted Status = "not-started"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Statuses lists every status in cycle order.
var Statuses = []Status{StatusNotStarted, StatusInProgress, StatusCompleted}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	return slices.Contains(Statuses, s)
}

// Difficulty is a rough estimate of how hard a technology is to learn.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Difficulties lists every difficulty from easiest to hardest.
var Difficulties = []Difficulty{DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced}

// IsValid reports whether d is a known difficulty.
func (d Difficulty) IsValid() bool {
	return slices.Contains(Difficulties, d)
}

// DefaultCategory is the bucket used for items without a category.
const DefaultCategory = "Other"

// ID identifies an item, or a note within its item. Documents written by
// older versions use JSON numbers for ids, so both numbers and strings are
// accepted when decoding.
type ID string

// UnmarshalJSON accepts a JSON string or number.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Note is a single checklist entry within an item.
type Note struct {
	ID        ID     `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// Item is a tracked technology.
//
// Fields the store does not interpret (enrichment data and anything unknown
// found in imported documents) are carried as-is: the typed optional fields
// below, plus Extra for keys this version does not know about.
type Item struct {
	ID          ID         `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Difficulty  Difficulty `json:"difficulty,omitempty"`
	Status      Status     `json:"status"`
	Notes       []Note     `json:"notes"`

	EstimatedHours float64  `json:"estimatedHours,omitempty"`
	Prerequisites  []string `json:"prerequisites,omitempty"`
	LearningGoals  []string `json:"learningGoals,omitempty"`
	Resources      []string `json:"resources,omitempty"`
	Language       string   `json:"language,omitempty"`
	Stars          int      `json:"stars,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// itemFields is Item without its JSON methods, used to avoid recursion.
type itemFields Item

// knownKeys are the JSON keys owned by Item's typed fields.
var knownKeys = []string{
	"id", "title", "description", "category", "difficulty", "status", "notes",
	"estimatedHours", "prerequisites", "learningGoals", "resources", "language", "stars",
}

// isKnownKey matches k against knownKeys the way encoding/json matches
// object keys to struct fields, ignoring case.
func isKnownKey(k string) bool {
	return slices.ContainsFunc(knownKeys, func(known string) bool {
		return strings.EqualFold(known, k)
	})
}

// UnmarshalJSON decodes the typed fields and keeps every other key in Extra.
func (it *Item) UnmarshalJSON(data []byte) error {
	var fields itemFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for k := range raw {
		if isKnownKey(k) {
			delete(raw, k)
		}
	}

	*it = Item(fields)
	if len(raw) > 0 {
		it.Extra = raw
	}
	return nil
}

// MarshalJSON encodes the typed fields followed by any Extra keys.
func (it Item) MarshalJSON() ([]byte, error) {
	fields := itemFields(it)
	if fields.Notes == nil {
		fields.Notes = []Note{}
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	if len(it.Extra) == 0 {
		return data, nil
	}

	extra := make(map[string]json.RawMessage, len(it.Extra))
	for k, v := range it.Extra {
		if isKnownKey(k) {
			continue
		}
		extra[k] = v
	}
	if len(extra) == 0 {
		return data, nil
	}

	tail, err := json.Marshal(extra)
	if err != nil {
		return nil, err
	}

	// Splice {"a":..} and {"x":..} into {"a":..,"x":..}.
	out := make([]byte, 0, len(data)+len(tail))
	out = append(out, data[:len(data)-1]...)
	out = append(out, ',')
	out = append(out, tail[1:]...)
	return out, nil
}

// Clone returns a deep copy of the item.
func (it Item) Clone() Item {
	it.Notes = slices.Clone(it.Notes)
	it.Prerequisites = slices.Clone(it.Prerequisites)
	it.LearningGoals = slices.Clone(it.LearningGoals)
	it.Resources = slices.Clone(it.Resources)
	if it.Extra != nil {
		extra := make(map[string]json.RawMessage, len(it.Extra))
		for k, v := range it.Extra {
			extra[k] = slices.Clone(v)
		}
		it.Extra = extra
	}
	return it
}

// CategoryLabel returns the item's category, or DefaultCategory when blank.
func (it Item) CategoryLabel() string {
	if strings.TrimSpace(it.Category) == "" {
		return DefaultCategory
	}
	return it.Category
}

// Note returns the note with the given id.
func (it Item) Note(id ID) (Note, bool) {
	for _, n := range it.Notes {
		if n.ID == id {
			return n, true
		}
	}
	return Note{}, false
}

// CompletedNotes returns the number of completed notes.
func (it Item) CompletedNotes() int {
	count := 0
	for _, n := range it.Notes {
		if n.Completed {
			count++
		}
	}
	return count
}

// Matches reports whether term (already lower-cased) appears in the item's
// title, description, category, or any note text.
func (it Item) Matches(term string) bool {
	if strings.Contains(strings.ToLower(it.Title), term) ||
		strings.Contains(strings.ToLower(it.Description), term) ||
		strings.Contains(strings.ToLower(it.Category), term) {
		return true
	}
	for _, n := range it.Notes {
		if strings.Contains(strings.ToLower(n.Text), term) {
			return true
		}
	}
	return false
}

// CloneItems deep-copies a collection.
func CloneItems(items []Item) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = it.Clone()
	}
	return out
}
