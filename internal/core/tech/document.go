package tech

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/hay-kot/criterio"

	"github.com/colonyops/techtrack/internal/core/validate"
)

// ExportFileFormat is the layout of the suggested export file name.
const ExportFileFormat = "technologies-backup-2006-01-02.json"

// ParseDocument extracts the raw "technologies" value from an import
// document. It fails when the document is not a JSON object or has no
// technologies field; the value itself is checked by DecodeItems.
func ParseDocument(data []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return nil, invalid(criterio.NewFieldErrors("document",
			fmt.Errorf("must be an object with a technologies field, got a bare array")))
	}

	var doc struct {
		Technologies json.RawMessage `json:"technologies"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, invalid(criterio.NewFieldErrors("document", fmt.Errorf("invalid JSON: %w", err)))
	}
	if len(doc.Technologies) == 0 {
		return nil, invalid(criterio.NewFieldErrors("technologies", fmt.Errorf("is required")))
	}
	return doc.Technologies, nil
}

// DecodeItems decodes and validates a candidate collection. The candidate
// must be a JSON array of item objects.
func DecodeItems(candidate json.RawMessage) ([]Item, error) {
	trimmed := bytes.TrimSpace(candidate)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, invalid(criterio.NewFieldErrors("technologies", fmt.Errorf("must be an array")))
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil, invalid(criterio.NewFieldErrors("technologies", fmt.Errorf("invalid array: %w", err)))
	}

	var errs criterio.FieldErrorsBuilder
	items := make([]Item, 0, len(elems))
	for i, raw := range elems {
		field := fmt.Sprintf("technologies[%d]", i)

		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 || raw[0] != '{' {
			errs = errs.Append(field, fmt.Errorf("must be an object"))
			continue
		}

		var it Item
		if err := json.Unmarshal(raw, &it); err != nil {
			errs = errs.Append(field, err)
			continue
		}
		items = append(items, it)
	}
	if err := errs.ToError(); err != nil {
		return nil, invalid(err)
	}

	if err := ValidateItems(items); err != nil {
		return nil, err
	}

	return NormalizeItems(items), nil
}

// ValidateItems checks a whole collection: ids present and unique, titles
// non-empty, known status and difficulty values, and well-formed notes.
func ValidateItems(items []Item) error {
	var errs criterio.FieldErrorsBuilder
	seen := make(map[ID]bool, len(items))

	for i, it := range items {
		field := fmt.Sprintf("technologies[%d]", i)

		switch {
		case it.ID == "":
			errs = errs.Append(field+".id", fmt.Errorf("is required"))
		case seen[it.ID]:
			errs = errs.Append(field+".id", fmt.Errorf("duplicate id %q", it.ID))
		default:
			seen[it.ID] = true
		}

		if err := validate.Title(it.Title); err != nil {
			errs = errs.Append(field+".title", err)
		}
		if it.Status != "" && !it.Status.IsValid() {
			errs = errs.Append(field+".status", fmt.Errorf("invalid status %q", it.Status))
		}
		if it.Difficulty != "" && !it.Difficulty.IsValid() {
			errs = errs.Append(field+".difficulty", fmt.Errorf("invalid difficulty %q", it.Difficulty))
		}

		noteIDs := make(map[ID]bool, len(it.Notes))
		for j, n := range it.Notes {
			nf := fmt.Sprintf("%s.notes[%d]", field, j)
			switch {
			case n.ID == "":
				errs = errs.Append(nf+".id", fmt.Errorf("is required"))
			case noteIDs[n.ID]:
				errs = errs.Append(nf+".id", fmt.Errorf("duplicate note id %q", n.ID))
			default:
				noteIDs[n.ID] = true
			}
			if err := validate.NoteText(n.Text); err != nil {
				errs = errs.Append(nf+".text", err)
			}
		}
	}

	return invalid(errs.ToError())
}

// NormalizeItems fills in defaults for optional fields without touching
// anything else: a missing status becomes not-started and nil notes become
// an empty list.
func NormalizeItems(items []Item) []Item {
	out := CloneItems(items)
	for i := range out {
		if out[i].Status == "" {
			out[i].Status = StatusNotStarted
		}
		if out[i].Notes == nil {
			out[i].Notes = []Note{}
		}
	}
	return out
}
