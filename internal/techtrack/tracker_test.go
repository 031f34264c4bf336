package techtrack

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/techtrack/internal/core/eventbus"
	"github.com/colonyops/techtrack/internal/core/eventbus/testbus"
	"github.com/colonyops/techtrack/internal/core/kv"
	"github.com/colonyops/techtrack/internal/core/tech"
	"github.com/colonyops/techtrack/internal/data/stores"
)

func newTestTracker(t *testing.T) (*Tracker, *testbus.Bus, kv.KV) {
	t.Helper()
	store := stores.NewMemoryStore()
	tb := testbus.New(t)
	tr, err := New(context.Background(), store, tb.EventBus, zerolog.Nop())
	require.NoError(t, err)
	return tr, tb, store
}

// failingKV fails every write once armed.
type failingKV struct {
	kv.KV
	fail bool
}

func (f *failingKV) Set(ctx context.Context, key string, value any) error {
	if f.fail {
		return errors.New("disk full")
	}
	return f.KV.Set(ctx, key, value)
}

func persisted(t *testing.T, store kv.KV) []tech.Item {
	t.Helper()
	var raw json.RawMessage
	require.NoError(t, store.Get(context.Background(), Namespace+":"+SlotKey, &raw))
	items, err := tech.DecodeItems(raw)
	require.NoError(t, err)
	return items
}

func TestNew_SeedsWhenEmpty(t *testing.T) {
	tr, _, store := newTestTracker(t)

	assert.Equal(t, tech.Seed(), tr.Items())

	has, err := store.Has(context.Background(), Namespace+":"+SlotKey)
	require.NoError(t, err)
	assert.False(t, has, "seed is not written until the first mutation")
}

func TestNew_LoadsPersisted(t *testing.T) {
	ctx := context.Background()
	store := stores.NewMemoryStore()
	require.NoError(t, store.Set(ctx, Namespace+":"+SlotKey, json.RawMessage(`[{"id":7,"title":"Go","forks":3}]`)))

	tr, err := New(ctx, store, nil, zerolog.Nop())
	require.NoError(t, err)

	items := tr.Items()
	require.Len(t, items, 1)
	assert.Equal(t, tech.ID("7"), items[0].ID)
	assert.Equal(t, tech.StatusNotStarted, items[0].Status)
	assert.JSONEq(t, `3`, string(items[0].Extra["forks"]))
}

func TestNew_UnparsableFallsBackToSeed(t *testing.T) {
	ctx := context.Background()
	store := stores.NewMemoryStore()
	require.NoError(t, store.Set(ctx, Namespace+":"+SlotKey, "oops"))

	tr, err := New(ctx, store, nil, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, tech.Seed(), tr.Items())
}

func TestAdd(t *testing.T) {
	ctx := context.Background()
	tr, tb, store := newTestTracker(t)

	it, err := tr.Add(ctx, tech.NewItem{Title: "Go", Description: "systems"})
	require.NoError(t, err)

	assert.NotEmpty(t, it.ID)
	assert.Equal(t, tech.StatusNotStarted, it.Status)
	assert.Equal(t, tech.DefaultCategory, it.Category)
	assert.Equal(t, tech.DifficultyBeginner, it.Difficulty)
	assert.Empty(t, it.Notes)

	items := tr.Items()
	require.Len(t, items, 5)
	assert.Equal(t, it, items[4])
	assert.Equal(t, items, persisted(t, store))

	tb.AssertPublished(t, eventbus.EventItemCreated)
	tb.AssertPublished(t, eventbus.EventTrackerChanged)
}

func TestAdd_UniqueIDs(t *testing.T) {
	ctx := context.Background()
	tr, _, _ := newTestTracker(t)

	ids := []tech.ID{"1", "1", "x"}
	tr.newItemID = func() tech.ID {
		id := ids[0]
		ids = ids[1:]
		return id
	}

	it, err := tr.Add(ctx, tech.NewItem{Title: "Go"})
	require.NoError(t, err)
	assert.Equal(t, tech.ID("x"), it.ID, "ids already in use are skipped")
}

func TestAdd_Validation(t *testing.T) {
	ctx := context.Background()
	tr, tb, _ := newTestTracker(t)

	_, err := tr.Add(ctx, tech.NewItem{Title: "  "})
	require.ErrorIs(t, err, tech.ErrValidation)

	_, err = tr.Add(ctx, tech.NewItem{Title: "Go", Difficulty: "expert"})
	require.ErrorIs(t, err, tech.ErrValidation)

	assert.Len(t, tr.Items(), 4)
	tb.AssertNotPublished(t, eventbus.EventTrackerChanged, 20*time.Millisecond)
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	tr, tb, _ := newTestTracker(t)

	require.NoError(t, tr.Remove(ctx, "2"))
	assert.Len(t, tr.Items(), 3)

	_, err := tr.ByID("2")
	require.ErrorIs(t, err, tech.ErrNotFound)

	tb.AssertPublished(t, eventbus.EventItemDeleted)
	deleted := testbus.Payloads[eventbus.ItemDeletedPayload](tb)
	require.Len(t, deleted, 1)
	assert.Equal(t, "JSX Syntax", deleted[0].Title)
}

func TestMissingIDsAreNoOps(t *testing.T) {
	ctx := context.Background()
	tr, tb, store := newTestTracker(t)
	title := "x"

	require.NoError(t, tr.Remove(ctx, "nope"))
	require.NoError(t, tr.Update(ctx, "nope", tech.Patch{Title: &title}))
	require.NoError(t, tr.CycleStatus(ctx, "nope"))
	require.NoError(t, tr.SetStatus(ctx, "nope", tech.StatusCompleted))
	require.NoError(t, tr.ToggleNote(ctx, "nope", "1"))
	require.NoError(t, tr.ToggleNote(ctx, "1", "nope"))
	require.NoError(t, tr.RemoveNote(ctx, "1", "nope"))
	require.NoError(t, tr.EditNote(ctx, "1", "nope", "text"))

	note, err := tr.AddNote(ctx, "nope", "text")
	require.NoError(t, err)
	assert.Empty(t, note.ID)

	assert.Equal(t, tech.Seed(), tr.Items())
	has, err := store.Has(ctx, Namespace+":"+SlotKey)
	require.NoError(t, err)
	assert.False(t, has)
	tb.AssertNotPublished(t, eventbus.EventTrackerChanged, 20*time.Millisecond)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	tr, _, _ := newTestTracker(t)

	title := "Hooks"
	category := "React"
	require.NoError(t, tr.Update(ctx, "3", tech.Patch{Title: &title, Category: &category}))

	it, err := tr.ByID("3")
	require.NoError(t, err)
	assert.Equal(t, "Hooks", it.Title)
	assert.Equal(t, "React", it.Category)
	assert.Equal(t, tech.Seed()[2].Description, it.Description)

	empty := ""
	require.ErrorIs(t, tr.Update(ctx, "3", tech.Patch{Title: &empty}), tech.ErrValidation)
}

func TestCycleStatus_ThreeTimesReturnsToStart(t *testing.T) {
	ctx := context.Background()
	tr, tb, _ := newTestTracker(t)

	for _, id := range []tech.ID{"1", "2", "3"} {
		before, err := tr.ByID(id)
		require.NoError(t, err)

		for range 3 {
			require.NoError(t, tr.CycleStatus(ctx, id))
		}

		after, err := tr.ByID(id)
		require.NoError(t, err)
		assert.Equal(t, before.Status, after.Status)
	}

	tb.AssertPublished(t, eventbus.EventItemStatusChanged)
}

func TestCycleStatus_IgnoresNotes(t *testing.T) {
	ctx := context.Background()
	tr, _, _ := newTestTracker(t)

	// item 1 has every note completed; cycling still moves it on
	require.NoError(t, tr.CycleStatus(ctx, "1"))
	it, _ := tr.ByID("1")
	assert.Equal(t, tech.StatusNotStarted, it.Status)
}

func TestSetStatus(t *testing.T) {
	ctx := context.Background()
	tr, tb, _ := newTestTracker(t)

	require.NoError(t, tr.SetStatus(ctx, "4", tech.StatusCompleted))
	it, _ := tr.ByID("4")
	assert.Equal(t, tech.StatusCompleted, it.Status)

	require.ErrorIs(t, tr.SetStatus(ctx, "4", "done"), tech.ErrValidation)

	tb.AssertPublished(t, eventbus.EventItemStatusChanged)
	changes := testbus.Payloads[eventbus.ItemStatusChangedPayload](tb)
	require.Len(t, changes, 1)
	assert.Equal(t, tech.StatusNotStarted, changes[0].OldStatus)
	assert.Equal(t, tech.StatusCompleted, changes[0].NewStatus)
}

func TestToggleNote_DerivesStatus(t *testing.T) {
	ctx := context.Background()
	tr, _, _ := newTestTracker(t)

	// item 2: notes {done, open}, in-progress
	require.NoError(t, tr.ToggleNote(ctx, "2", "2"))
	it, _ := tr.ByID("2")
	assert.Equal(t, tech.StatusCompleted, it.Status, "all notes completed")

	require.NoError(t, tr.ToggleNote(ctx, "2", "1"))
	it, _ = tr.ByID("2")
	assert.Equal(t, tech.StatusInProgress, it.Status, "one note reopened")

	require.NoError(t, tr.ToggleNote(ctx, "2", "2"))
	it, _ = tr.ByID("2")
	assert.Equal(t, tech.StatusInProgress, it.Status, "no notes completed keeps in-progress")
}

func TestToggleNote_ReopeningAnyNoteLeavesCompleted(t *testing.T) {
	ctx := context.Background()
	tr, _, _ := newTestTracker(t)

	require.NoError(t, tr.ToggleNote(ctx, "1", "1"))
	it, _ := tr.ByID("1")
	assert.Equal(t, tech.StatusInProgress, it.Status)
}

func TestAddNote(t *testing.T) {
	ctx := context.Background()
	tr, _, _ := newTestTracker(t)

	note, err := tr.AddNote(ctx, "3", "learn X")
	require.NoError(t, err)
	assert.Len(t, string(note.ID), noteIDLength)
	assert.False(t, note.Completed)

	it, _ := tr.ByID("3")
	assert.Equal(t, tech.StatusInProgress, it.Status)
	require.Len(t, it.Notes, 1)
	assert.Equal(t, "learn X", it.Notes[0].Text)

	_, err = tr.AddNote(ctx, "3", " ")
	require.ErrorIs(t, err, tech.ErrValidation)
}

func TestAddNote_ToCompletedItem(t *testing.T) {
	ctx := context.Background()
	tr, _, _ := newTestTracker(t)

	_, err := tr.AddNote(ctx, "1", "one more thing")
	require.NoError(t, err)

	it, _ := tr.ByID("1")
	assert.Equal(t, tech.StatusInProgress, it.Status)
}

func TestAddNote_UniqueWithinItem(t *testing.T) {
	ctx := context.Background()
	tr, _, _ := newTestTracker(t)

	ids := []tech.ID{"1", "2", "fresh"}
	tr.newNoteID = func() tech.ID {
		id := ids[0]
		ids = ids[1:]
		return id
	}

	note, err := tr.AddNote(ctx, "1", "again")
	require.NoError(t, err)
	assert.Equal(t, tech.ID("fresh"), note.ID)
}

func TestRemoveNote(t *testing.T) {
	ctx := context.Background()
	tr, _, _ := newTestTracker(t)

	require.NoError(t, tr.RemoveNote(ctx, "2", "2"))
	it, _ := tr.ByID("2")
	assert.Equal(t, tech.StatusCompleted, it.Status, "remaining note is completed")

	require.NoError(t, tr.RemoveNote(ctx, "2", "1"))
	it, _ = tr.ByID("2")
	assert.Equal(t, tech.StatusNotStarted, it.Status, "last note removed")
	assert.Empty(t, it.Notes)
}

func TestRemoveNote_LastNoteRevertsFromAnyStatus(t *testing.T) {
	ctx := context.Background()

	for _, status := range tech.Statuses {
		t.Run(string(status), func(t *testing.T) {
			tr, _, _ := newTestTracker(t)
			note, err := tr.AddNote(ctx, "4", "only")
			require.NoError(t, err)
			require.NoError(t, tr.SetStatus(ctx, "4", status))

			require.NoError(t, tr.RemoveNote(ctx, "4", note.ID))
			it, _ := tr.ByID("4")
			assert.Equal(t, tech.StatusNotStarted, it.Status)
		})
	}
}

func TestEditNote(t *testing.T) {
	ctx := context.Background()
	tr, _, _ := newTestTracker(t)

	require.NoError(t, tr.EditNote(ctx, "2", "2", "Ternaries and &&"))
	it, _ := tr.ByID("2")
	assert.Equal(t, "Ternaries and &&", it.Notes[1].Text)
	assert.Equal(t, tech.StatusInProgress, it.Status)

	require.ErrorIs(t, tr.EditNote(ctx, "2", "2", ""), tech.ErrValidation)
}

func TestMarkAllCompletedAndResetAll(t *testing.T) {
	ctx := context.Background()
	tr, _, _ := newTestTracker(t)

	require.NoError(t, tr.MarkAllCompleted(ctx))
	for _, it := range tr.Items() {
		assert.Equal(t, tech.StatusCompleted, it.Status)
		for _, n := range it.Notes {
			assert.True(t, n.Completed)
		}
	}
	assert.Equal(t, 100, tr.Stats().ProgressPercent)

	require.NoError(t, tr.ResetAll(ctx))
	for _, it := range tr.Items() {
		assert.Equal(t, tech.StatusNotStarted, it.Status)
		for _, n := range it.Notes {
			assert.False(t, n.Completed)
		}
	}
	assert.Equal(t, 0, tr.Stats().CompletedNotes)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	tr, _, store := newTestTracker(t)

	_, err := tr.Add(ctx, tech.NewItem{Title: "Go"})
	require.NoError(t, err)

	require.NoError(t, tr.Clear(ctx))
	assert.Equal(t, tech.Seed(), tr.Items())
	assert.Equal(t, tech.Seed(), persisted(t, store))
}

func TestImportAll(t *testing.T) {
	ctx := context.Background()
	tr, tb, _ := newTestTracker(t)

	n, err := tr.ImportAll(ctx, json.RawMessage(`[{"id":1,"title":"Go","status":"completed","notes":[]},{"id":"b","title":"Rust"}]`))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	items := tr.Items()
	require.Len(t, items, 2)
	assert.Equal(t, tech.ID("1"), items[0].ID)
	assert.Equal(t, tech.StatusNotStarted, items[1].Status)

	tb.AssertPublished(t, eventbus.EventTrackerImported)
}

func TestImportAll_RejectsNonArray(t *testing.T) {
	ctx := context.Background()
	tr, tb, store := newTestTracker(t)

	_, err := tr.ImportDocument(ctx, []byte(`{"technologies":"oops"}`))
	require.ErrorIs(t, err, tech.ErrValidation)

	_, err = tr.ImportAll(ctx, json.RawMessage(`[{"id":1}]`))
	require.ErrorIs(t, err, tech.ErrValidation)

	assert.Equal(t, tech.Seed(), tr.Items())
	has, err := store.Has(ctx, Namespace+":"+SlotKey)
	require.NoError(t, err)
	assert.False(t, has)
	tb.AssertNotPublished(t, eventbus.EventTrackerImported, 20*time.Millisecond)
}

func TestPersistFailureLeavesCollectionUnchanged(t *testing.T) {
	ctx := context.Background()
	store := &failingKV{KV: stores.NewMemoryStore()}
	tr, err := New(ctx, store, nil, zerolog.Nop())
	require.NoError(t, err)

	store.fail = true

	_, err = tr.Add(ctx, tech.NewItem{Title: "Go"})
	require.ErrorContains(t, err, "persist add")
	require.ErrorContains(t, tr.CycleStatus(ctx, "3"), "disk full")
	require.Error(t, tr.Clear(ctx))

	assert.Equal(t, tech.Seed(), tr.Items())
}

func TestReload(t *testing.T) {
	ctx := context.Background()
	tr, tb, store := newTestTracker(t)

	changed, err := tr.Reload(ctx)
	require.NoError(t, err)
	assert.False(t, changed, "nothing persisted yet")

	require.NoError(t, tr.CycleStatus(ctx, "3"))
	changed, err = tr.Reload(ctx)
	require.NoError(t, err)
	assert.False(t, changed, "storage matches memory")

	require.NoError(t, store.Set(ctx, Namespace+":"+SlotKey, json.RawMessage(`[{"id":"z","title":"Zig"}]`)))
	changed, err = tr.Reload(ctx)
	require.NoError(t, err)
	assert.True(t, changed)
	require.Len(t, tr.Items(), 1)
	tb.AssertPublished(t, eventbus.EventTrackerReloaded)

	require.NoError(t, store.Set(ctx, Namespace+":"+SlotKey, json.RawMessage(`{"broken":true}`)))
	_, err = tr.Reload(ctx)
	require.ErrorIs(t, err, tech.ErrValidation)
	assert.Equal(t, tech.ID("z"), tr.Items()[0].ID, "malformed content is ignored")
}

func TestSearch(t *testing.T) {
	tr, _, _ := newTestTracker(t)

	got := tr.Search("react")
	require.Len(t, got, 4)
	for i, it := range got {
		assert.Equal(t, tech.Seed()[i].ID, it.ID, "original order")
	}

	got = tr.Search("  CONDITIONAL ")
	require.Len(t, got, 1)
	assert.Equal(t, tech.ID("2"), got[0].ID)

	assert.Len(t, tr.Search("   "), 4)
	assert.Empty(t, tr.Search("angular"))
}

func TestQueries(t *testing.T) {
	tr, _, _ := newTestTracker(t)

	it, err := tr.ByID("3")
	require.NoError(t, err)
	assert.Equal(t, "State Management", it.Title)

	assert.Len(t, tr.ByCategory("React Basics"), 3)
	assert.Empty(t, tr.ByCategory("Backend"))
	assert.Equal(t, []string{"Advanced React", "React Basics"}, tr.Categories())
}

func TestItemsAreCopies(t *testing.T) {
	tr, _, _ := newTestTracker(t)

	items := tr.Items()
	items[0].Notes[0].Completed = false
	items[0].Title = "changed"

	it, _ := tr.ByID("1")
	assert.Equal(t, "React Components", it.Title)
	assert.True(t, it.Notes[0].Completed)
}

func TestStats_Seed(t *testing.T) {
	tr, _, _ := newTestTracker(t)

	s := tr.Stats()
	assert.Equal(t, 4, s.TotalTechnologies)
	assert.Equal(t, 1, s.CompletedTechnologies)
	assert.Equal(t, 1, s.InProgressTechnologies)
	assert.Equal(t, 2, s.NotStartedTechnologies)
	assert.Equal(t, 4, s.TotalNotes)
	assert.Equal(t, 3, s.CompletedNotes)
	assert.Equal(t, 25, s.ProgressPercent)
}

func TestTracks(t *testing.T) {
	tr, _, _ := newTestTracker(t)

	tests := []struct {
		title string
		want  bool
	}{
		{"jsx syntax", true},
		{"useState", true}, // mentioned in the State Management description
		{"Svelte", false},
		{"  ", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tr.Tracks(tech.Item{Title: tt.title}), tt.title)
	}
}
