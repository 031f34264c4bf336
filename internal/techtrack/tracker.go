// Package techtrack owns the canonical collection of tracked technologies.
// Every read and write goes through a Tracker, which persists the collection
// to a single KV slot and announces changes on the event bus.
package techtrack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/colonyops/techtrack/internal/core/eventbus"
	"github.com/colonyops/techtrack/internal/core/kv"
	"github.com/colonyops/techtrack/internal/core/logging"
	"github.com/colonyops/techtrack/internal/core/stats"
	"github.com/colonyops/techtrack/internal/core/tech"
	"github.com/colonyops/techtrack/pkg/randid"
)

const (
	// Namespace is the KV namespace holding tracker state.
	Namespace = "techtrack"
	// SlotKey is the key of the persisted collection within Namespace.
	SlotKey = "technologies"

	noteIDLength = 8
)

// Operation names carried on tracker.changed events.
const (
	OpAdd           = "add"
	OpRemove        = "remove"
	OpUpdate        = "update"
	OpCycleStatus   = "cycle-status"
	OpSetStatus     = "set-status"
	OpToggleNote    = "toggle-note"
	OpAddNote       = "add-note"
	OpRemoveNote    = "remove-note"
	OpEditNote      = "edit-note"
	OpMarkCompleted = "mark-all-completed"
	OpResetAll      = "reset-all"
	OpClear         = "clear"
	OpImport        = "import"
)

// Tracker is the single source of truth for the item collection.
//
// Writers are serialized by mu. The current collection sits behind an atomic
// pointer that is only swapped after the replacement has been persisted, so
// readers never lock and never see a half-applied mutation.
type Tracker struct {
	slot  *kv.TypedKV[json.RawMessage]
	store kv.KV
	bus   *eventbus.EventBus
	log   zerolog.Logger

	mu    sync.Mutex
	items atomic.Pointer[[]tech.Item]

	newItemID func() tech.ID
	newNoteID func() tech.ID
}

// New loads the persisted collection, falling back to the seed list when the
// slot is missing or holds something that does not decode as a collection.
// Storage read failures are returned.
func New(ctx context.Context, store kv.KV, bus *eventbus.EventBus, log zerolog.Logger) (*Tracker, error) {
	t := &Tracker{
		slot:      kv.Scoped[json.RawMessage](store, Namespace),
		store:     store,
		bus:       bus,
		log:       logging.Component(log, "tracker"),
		newItemID: newItemID,
		newNoteID: func() tech.ID { return tech.ID(randid.Generate(noteIDLength)) },
	}

	items, err := t.read(ctx)
	switch {
	case errors.Is(err, kv.ErrNotFound):
		t.log.Debug().Msg("no persisted collection, using seed data")
		items = tech.Seed()
	case errors.Is(err, tech.ErrValidation):
		t.log.Warn().Err(err).Msg("persisted collection is unreadable, using seed data")
		items = tech.Seed()
	case err != nil:
		return nil, fmt.Errorf("load collection: %w", err)
	}

	t.items.Store(&items)
	return t, nil
}

func newItemID() tech.ID {
	id, err := uuid.NewV7()
	if err != nil {
		return tech.ID(uuid.NewString())
	}
	return tech.ID(id.String())
}

// read decodes the persisted slot. A value that is present but malformed is
// reported as tech.ErrValidation.
func (t *Tracker) read(ctx context.Context) ([]tech.Item, error) {
	raw, err := t.slot.Get(ctx, SlotKey)
	if err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
			return nil, fmt.Errorf("%w: %w", tech.ErrValidation, err)
		}
		return nil, err
	}
	return tech.DecodeItems(raw)
}

// snapshot returns the live collection. Callers must not modify it.
func (t *Tracker) snapshot() []tech.Item {
	return *t.items.Load()
}

// commit persists next and makes it current, then publishes events derived
// from the difference between prev and next.
func (t *Tracker) commit(ctx context.Context, op string, prev, next []tech.Item) error {
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("persist %s: %w", op, err)
	}
	if err := t.slot.Set(ctx, SlotKey, data); err != nil {
		return fmt.Errorf("persist %s: %w", op, err)
	}

	t.items.Store(&next)
	t.log.Debug().Ctx(ctx).Str("op", op).Int("count", len(next)).Msg("collection updated")

	t.publishStatusChanges(prev, next)
	t.bus.PublishTrackerChanged(eventbus.TrackerChangedPayload{Op: op, Count: len(next)})
	return nil
}

func (t *Tracker) publishStatusChanges(prev, next []tech.Item) {
	before := make(map[tech.ID]tech.Status, len(prev))
	for _, it := range prev {
		before[it.ID] = it.Status
	}
	for _, it := range next {
		old, ok := before[it.ID]
		if !ok || old == it.Status {
			continue
		}
		t.bus.PublishItemStatusChanged(eventbus.ItemStatusChangedPayload{
			ItemID:    it.ID,
			Title:     it.Title,
			OldStatus: old,
			NewStatus: it.Status,
		})
	}
}

// mutateItem applies fn to a copy of the item with the given id and commits
// the result. A missing id is a no-op. fn reports whether it changed
// anything; returning false skips the write.
func (t *Tracker) mutateItem(ctx context.Context, op string, id tech.ID, fn func(it *tech.Item) bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev := t.snapshot()
	idx := indexOf(prev, id)
	if idx < 0 {
		t.log.Debug().Ctx(logging.WithItemID(ctx, id.String())).Str("op", op).Msg("item not found, ignoring")
		return nil
	}

	next := slices.Clone(prev)
	it := prev[idx].Clone()
	if !fn(&it) {
		return nil
	}
	next[idx] = it

	return t.commit(ctx, op, prev, next)
}

// replaceAll commits a collection built from a copy of the current one.
func (t *Tracker) replaceAll(ctx context.Context, op string, fn func(items []tech.Item) []tech.Item) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev := t.snapshot()
	return t.commit(ctx, op, prev, fn(tech.CloneItems(prev)))
}

func indexOf(items []tech.Item, id tech.ID) int {
	return slices.IndexFunc(items, func(it tech.Item) bool { return it.ID == id })
}

// Add validates fields and appends a new not-started item with no notes.
func (t *Tracker) Add(ctx context.Context, fields tech.NewItem) (tech.Item, error) {
	if err := fields.Validate(); err != nil {
		return tech.Item{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	prev := t.snapshot()
	id := t.newItemID()
	for indexOf(prev, id) >= 0 {
		id = t.newItemID()
	}

	it := fields.Build(id)
	next := append(slices.Clone(prev), it)
	if err := t.commit(ctx, OpAdd, prev, next); err != nil {
		return tech.Item{}, err
	}

	t.bus.PublishItemCreated(eventbus.ItemCreatedPayload{Item: it.Clone()})
	return it.Clone(), nil
}

// Remove deletes the item and its notes. A missing id is a no-op.
func (t *Tracker) Remove(ctx context.Context, id tech.ID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev := t.snapshot()
	idx := indexOf(prev, id)
	if idx < 0 {
		return nil
	}

	removed := prev[idx]
	next := slices.Delete(slices.Clone(prev), idx, idx+1)
	if err := t.commit(ctx, OpRemove, prev, next); err != nil {
		return err
	}

	t.bus.PublishItemDeleted(eventbus.ItemDeletedPayload{ItemID: removed.ID, Title: removed.Title})
	return nil
}

// Update merges the patch into the item.
func (t *Tracker) Update(ctx context.Context, id tech.ID, patch tech.Patch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	if patch.IsZero() {
		return nil
	}

	return t.mutateItem(ctx, OpUpdate, id, func(it *tech.Item) bool {
		*it = patch.Apply(*it)
		return true
	})
}

// CycleStatus advances not-started → in-progress → completed → not-started.
// Notes are not consulted.
func (t *Tracker) CycleStatus(ctx context.Context, id tech.ID) error {
	return t.mutateItem(ctx, OpCycleStatus, id, func(it *tech.Item) bool {
		it.Status = tech.NextStatus(it.Status)
		return true
	})
}

// SetStatus sets the status directly.
func (t *Tracker) SetStatus(ctx context.Context, id tech.ID, status tech.Status) error {
	if err := tech.ValidateStatus(status); err != nil {
		return err
	}

	return t.mutateItem(ctx, OpSetStatus, id, func(it *tech.Item) bool {
		it.Status = status
		return true
	})
}

// ToggleNote flips a note's completed flag and re-derives the item status.
func (t *Tracker) ToggleNote(ctx context.Context, itemID, noteID tech.ID) error {
	return t.mutateItem(ctx, OpToggleNote, itemID, func(it *tech.Item) bool {
		i := noteIndex(it.Notes, noteID)
		if i < 0 {
			return false
		}
		it.Notes[i].Completed = !it.Notes[i].Completed
		it.Status = tech.DeriveStatus(it.Status, it.Notes)
		return true
	})
}

// AddNote appends an open note. A not-started item moves to in-progress, and
// a completed one drops back to in-progress since it now has open work. The
// returned note is zero when the item does not exist.
func (t *Tracker) AddNote(ctx context.Context, itemID tech.ID, text string) (tech.Note, error) {
	if err := tech.ValidateNoteText(text); err != nil {
		return tech.Note{}, err
	}

	var added tech.Note
	err := t.mutateItem(ctx, OpAddNote, itemID, func(it *tech.Item) bool {
		id := t.newNoteID()
		for noteIndex(it.Notes, id) >= 0 {
			id = t.newNoteID()
		}

		added = tech.Note{ID: id, Text: strings.TrimSpace(text)}
		it.Notes = append(it.Notes, added)
		if it.Status == tech.StatusNotStarted {
			it.Status = tech.StatusInProgress
		}
		it.Status = tech.DeriveStatus(it.Status, it.Notes)
		return true
	})
	if err != nil {
		return tech.Note{}, err
	}
	return added, nil
}

// RemoveNote deletes a note. Removing the last note resets the item to
// not-started.
func (t *Tracker) RemoveNote(ctx context.Context, itemID, noteID tech.ID) error {
	return t.mutateItem(ctx, OpRemoveNote, itemID, func(it *tech.Item) bool {
		i := noteIndex(it.Notes, noteID)
		if i < 0 {
			return false
		}
		it.Notes = slices.Delete(it.Notes, i, i+1)
		if len(it.Notes) == 0 {
			it.Status = tech.StatusNotStarted
		} else {
			it.Status = tech.DeriveStatus(it.Status, it.Notes)
		}
		return true
	})
}

// EditNote replaces a note's text. Status is untouched.
func (t *Tracker) EditNote(ctx context.Context, itemID, noteID tech.ID, text string) error {
	if err := tech.ValidateNoteText(text); err != nil {
		return err
	}

	return t.mutateItem(ctx, OpEditNote, itemID, func(it *tech.Item) bool {
		i := noteIndex(it.Notes, noteID)
		if i < 0 {
			return false
		}
		it.Notes[i].Text = strings.TrimSpace(text)
		return true
	})
}

func noteIndex(notes []tech.Note, id tech.ID) int {
	return slices.IndexFunc(notes, func(n tech.Note) bool { return n.ID == id })
}

// MarkAllCompleted completes every item and every note.
func (t *Tracker) MarkAllCompleted(ctx context.Context) error {
	return t.replaceAll(ctx, OpMarkCompleted, func(items []tech.Item) []tech.Item {
		return setAll(items, tech.StatusCompleted, true)
	})
}

// ResetAll returns every item to not-started with every note open.
func (t *Tracker) ResetAll(ctx context.Context) error {
	return t.replaceAll(ctx, OpResetAll, func(items []tech.Item) []tech.Item {
		return setAll(items, tech.StatusNotStarted, false)
	})
}

func setAll(items []tech.Item, status tech.Status, completed bool) []tech.Item {
	for i := range items {
		items[i].Status = status
		for j := range items[i].Notes {
			items[i].Notes[j].Completed = completed
		}
	}
	return items
}

// Clear replaces the collection with the seed data.
func (t *Tracker) Clear(ctx context.Context) error {
	return t.replaceAll(ctx, OpClear, func([]tech.Item) []tech.Item {
		return tech.Seed()
	})
}

// ImportAll replaces the whole collection with candidate, which must be a
// JSON array of valid items. Nothing is written when validation fails.
func (t *Tracker) ImportAll(ctx context.Context, candidate json.RawMessage) (int, error) {
	items, err := tech.DecodeItems(candidate)
	if err != nil {
		return 0, err
	}

	if err := t.replaceAll(ctx, OpImport, func([]tech.Item) []tech.Item { return items }); err != nil {
		return 0, err
	}

	t.log.Info().Int("count", len(items)).Msg("collection imported")
	t.bus.PublishTrackerImported(eventbus.TrackerImportedPayload{Count: len(items)})
	return len(items), nil
}

// Reload re-reads the persisted slot and adopts it when it differs from the
// in-memory collection. Missing or malformed content leaves the collection
// as it is. It reports whether anything changed.
func (t *Tracker) Reload(ctx context.Context) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	items, err := t.read(ctx)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("reload collection: %w", err)
	}

	prev := t.snapshot()
	if equalItems(prev, items) {
		return false, nil
	}

	t.items.Store(&items)
	t.log.Info().Int("count", len(items)).Msg("collection reloaded from storage")

	t.publishStatusChanges(prev, items)
	t.bus.PublishTrackerReloaded(eventbus.TrackerReloadedPayload{Count: len(items)})
	return true, nil
}

func equalItems(a, b []tech.Item) bool {
	if len(a) != len(b) {
		return false
	}
	left, err := json.Marshal(a)
	if err != nil {
		return false
	}
	right, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return string(left) == string(right)
}

// Items returns a deep copy of the collection.
func (t *Tracker) Items() []tech.Item {
	return tech.CloneItems(t.snapshot())
}

// Search returns items whose title, description, category, or note text
// contains term, ignoring case. A blank term matches everything.
func (t *Tracker) Search(term string) []tech.Item {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return t.Items()
	}

	out := []tech.Item{}
	for _, it := range t.snapshot() {
		if it.Matches(term) {
			out = append(out, it.Clone())
		}
	}
	return out
}

// Tracks reports whether candidate already appears in the collection: an
// item has the same title ignoring case, or mentions the title in its
// description.
func (t *Tracker) Tracks(candidate tech.Item) bool {
	title := strings.TrimSpace(candidate.Title)
	if title == "" {
		return false
	}
	for _, it := range t.snapshot() {
		if strings.EqualFold(it.Title, title) || strings.Contains(it.Description, title) {
			return true
		}
	}
	return false
}

// ByID returns the item with the given id, or tech.ErrNotFound.
func (t *Tracker) ByID(id tech.ID) (tech.Item, error) {
	items := t.snapshot()
	if i := indexOf(items, id); i >= 0 {
		return items[i].Clone(), nil
	}
	return tech.Item{}, fmt.Errorf("item %q: %w", id, tech.ErrNotFound)
}

// ByCategory returns the items whose category label equals category. Items
// with a blank category are listed under tech.DefaultCategory.
func (t *Tracker) ByCategory(category string) []tech.Item {
	out := []tech.Item{}
	for _, it := range t.snapshot() {
		if it.CategoryLabel() == category {
			out = append(out, it.Clone())
		}
	}
	return out
}

// Categories returns the distinct category labels, sorted.
func (t *Tracker) Categories() []string {
	seen := map[string]bool{}
	out := []string{}
	for _, it := range t.snapshot() {
		label := it.CategoryLabel()
		if !seen[label] {
			seen[label] = true
			out = append(out, label)
		}
	}
	sort.Strings(out)
	return out
}

// Stats computes aggregate figures for the current collection.
func (t *Tracker) Stats() stats.Stats {
	return stats.Compute(t.snapshot())
}
