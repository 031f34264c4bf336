package iojson

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteWith(t *testing.T) {
	var out, errOut bytes.Buffer

	require.NoError(t, WriteWith(&out, &errOut, map[string]int{"a": 1}))
	assert.JSONEq(t, `{"a":1}`, out.String())
	assert.Empty(t, errOut.String())

	err := WriteWith(&out, &errOut, map[string]any{"c": make(chan int)})
	require.Error(t, err)
	assert.Contains(t, errOut.String(), "json_error")
}

func TestWriteLine(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, WriteLine(&out, []int{1, 2}))
	require.NoError(t, WriteLine(&out, "x"))

	assert.Equal(t, "[1,2]\n\"x\"\n", out.String())
}

func TestWriteError(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, WriteError(&out, "boom", map[string]any{"id": "7"}))

	var got Error
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "boom", got.Message)
	assert.Equal(t, "7", got.Data["id"])
}

func TestFileReader(t *testing.T) {
	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "in.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"technologies":[]}`), 0o644))

		var fr FileReader
		fr.SetPath(path)
		data, err := fr.Read()
		require.NoError(t, err)
		assert.JSONEq(t, `{"technologies":[]}`, string(data))
	})

	t.Run("stdin", func(t *testing.T) {
		fr := FileReader{stdin: strings.NewReader("[]")}
		data, err := fr.Read()
		require.NoError(t, err)
		assert.Equal(t, "[]", string(data))
	})

	t.Run("missing file", func(t *testing.T) {
		var fr FileReader
		fr.SetPath(filepath.Join(t.TempDir(), "nope.json"))
		_, err := fr.Read()
		assert.Error(t, err)
	})
}
