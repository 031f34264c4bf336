package tech

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  ID
	}{
		{"string", `"api-42"`, "api-42"},
		{"integer", `1700000000000`, "1700000000000"},
		{"small integer", `3`, "3"},
		{"null", `null`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id ID
			require.NoError(t, json.Unmarshal([]byte(tt.input), &id))
			assert.Equal(t, tt.want, id)
		})
	}

	var id ID
	assert.Error(t, json.Unmarshal([]byte(`{"x":1}`), &id))
}

func TestItem_JSONPreservesUnknownFields(t *testing.T) {
	input := `{
		"id": "api-7",
		"title": "vite",
		"description": "Next generation frontend tooling",
		"category": "Frontend",
		"difficulty": "intermediate",
		"status": "not-started",
		"notes": [],
		"resources": ["https://github.com/vitejs/vite"],
		"language": "TypeScript",
		"stars": 65000,
		"forks": 5800,
		"isFromApi": true,
		"apiSource": "GitHub"
	}`

	var it Item
	require.NoError(t, json.Unmarshal([]byte(input), &it))

	assert.Equal(t, ID("api-7"), it.ID)
	assert.Equal(t, 65000, it.Stars)
	assert.Equal(t, []string{"https://github.com/vitejs/vite"}, it.Resources)
	require.Len(t, it.Extra, 3)
	assert.JSONEq(t, `5800`, string(it.Extra["forks"]))

	out, err := json.Marshal(it)
	require.NoError(t, err)
	assert.JSONEq(t, input, string(out))
}

func TestItem_MarshalJSONNilNotes(t *testing.T) {
	out, err := json.Marshal(Item{ID: "1", Title: "Go", Status: StatusNotStarted})
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(out, &raw))
	assert.Equal(t, []any{}, raw["notes"])
}

func TestItem_MarshalJSONExtraCannotShadowKnownKeys(t *testing.T) {
	it := Item{
		ID:     "1",
		Title:  "Go",
		Status: StatusCompleted,
		Extra:  map[string]json.RawMessage{"title": json.RawMessage(`"shadow"`)},
	}

	out, err := json.Marshal(it)
	require.NoError(t, err)

	var back Item
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, "Go", back.Title)
}

func TestItem_UnmarshalJSONKnownKeysIgnoreCase(t *testing.T) {
	var it Item
	require.NoError(t, json.Unmarshal([]byte(`{"ID":"1","Title":"Go","STATUS":"completed","forks":3}`), &it))

	assert.Equal(t, ID("1"), it.ID)
	assert.Equal(t, "Go", it.Title)
	assert.Equal(t, StatusCompleted, it.Status)
	assert.Equal(t, map[string]json.RawMessage{"forks": json.RawMessage(`3`)}, it.Extra)

	out, err := json.Marshal(it)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out, &raw))
	assert.NotContains(t, raw, "Title")
	assert.NotContains(t, raw, "ID")
	assert.JSONEq(t, `"Go"`, string(raw["title"]))
	assert.JSONEq(t, `3`, string(raw["forks"]))
}

func TestItem_MarshalJSONExtraCaseVariantDropped(t *testing.T) {
	it := Item{
		ID:    "1",
		Title: "Go",
		Extra: map[string]json.RawMessage{"Title": json.RawMessage(`"shadow"`)},
	}

	out, err := json.Marshal(it)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "shadow")
}

func TestItem_CloneIsDeep(t *testing.T) {
	orig := Seed()[0]
	orig.Resources = []string{"https://react.dev"}
	orig.Extra = map[string]json.RawMessage{"forks": json.RawMessage(`1`)}

	cp := orig.Clone()
	cp.Notes[0].Completed = false
	cp.Resources[0] = "changed"
	cp.Extra["forks"][0] = '2'

	assert.True(t, orig.Notes[0].Completed)
	assert.Equal(t, "https://react.dev", orig.Resources[0])
	assert.Equal(t, "1", string(orig.Extra["forks"]))
}

func TestItem_Matches(t *testing.T) {
	it := Seed()[1]

	assert.True(t, it.Matches("jsx"))
	assert.True(t, it.Matches("react basics"))
	assert.True(t, it.Matches("conditional"))
	assert.False(t, it.Matches("angular"))
}

func TestItem_CategoryLabel(t *testing.T) {
	assert.Equal(t, DefaultCategory, Item{}.CategoryLabel())
	assert.Equal(t, DefaultCategory, Item{Category: "  "}.CategoryLabel())
	assert.Equal(t, "Backend", Item{Category: "Backend"}.CategoryLabel())
}

func TestNewItem_Build(t *testing.T) {
	it := NewItem{Title: "  Go  "}.Build("abc")

	assert.Equal(t, ID("abc"), it.ID)
	assert.Equal(t, "Go", it.Title)
	assert.Equal(t, DefaultCategory, it.Category)
	assert.Equal(t, DifficultyBeginner, it.Difficulty)
	assert.Equal(t, StatusNotStarted, it.Status)
	assert.Empty(t, it.Notes)
	assert.NotNil(t, it.Notes)
}

func TestNewItem_Validate(t *testing.T) {
	assert.NoError(t, NewItem{Title: "Go"}.Validate())
	assert.NoError(t, NewItem{Title: "Go", Difficulty: DifficultyAdvanced}.Validate())

	err := NewItem{Title: " "}.Validate()
	assert.ErrorIs(t, err, ErrValidation)

	err = NewItem{Title: "Go", Difficulty: "expert"}.Validate()
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPatch(t *testing.T) {
	title := "Hooks"
	status := StatusCompleted
	bad := Status("done")
	empty := ""

	p := Patch{Title: &title, Status: &status}
	require.NoError(t, p.Validate())

	orig := Seed()[2]
	got := p.Apply(orig)
	assert.Equal(t, "Hooks", got.Title)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, orig.Description, got.Description)
	assert.Equal(t, "State Management", orig.Title, "original must not change")

	assert.ErrorIs(t, Patch{Status: &bad}.Validate(), ErrValidation)
	assert.ErrorIs(t, Patch{Title: &empty}.Validate(), ErrValidation)
	assert.True(t, Patch{}.IsZero())
	assert.False(t, p.IsZero())
}
