package techtrack

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/colonyops/techtrack/internal/core/stats"
	"github.com/colonyops/techtrack/internal/core/tech"
)

// ExportDocument is the backup file layout.
type ExportDocument struct {
	ExportedAt   time.Time   `json:"exportedAt"`
	Technologies []tech.Item `json:"technologies"`
	Stats        stats.Stats `json:"stats"`
}

// Export captures the current collection and its statistics.
func (t *Tracker) Export(now time.Time) ExportDocument {
	items := t.Items()
	if items == nil {
		items = []tech.Item{}
	}
	return ExportDocument{
		ExportedAt:   now.UTC().Truncate(time.Second),
		Technologies: items,
		Stats:        stats.Compute(items),
	}
}

// ExportFileName is the suggested file name for a backup taken at now.
func ExportFileName(now time.Time) string {
	return now.Format(tech.ExportFileFormat)
}

// ImportDocument validates an export document and replaces the collection
// with its technologies.
func (t *Tracker) ImportDocument(ctx context.Context, data []byte) (int, error) {
	candidate, err := tech.ParseDocument(data)
	if err != nil {
		return 0, err
	}
	return t.ImportAll(ctx, candidate)
}

// PreviewDocument validates an export document without importing it and
// returns the items it would install.
func PreviewDocument(data []byte) ([]tech.Item, error) {
	candidate, err := tech.ParseDocument(data)
	if err != nil {
		return nil, err
	}
	items, err := tech.DecodeItems(candidate)
	if err != nil {
		return nil, err
	}
	return items, nil
}

// MarshalIndent renders the document as indented JSON.
func (d ExportDocument) MarshalIndent() ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}
	return data, nil
}
