package commands

import (
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/techtrack/internal/core/stats"
	"github.com/colonyops/techtrack/internal/core/tech"
)

func TestItemMarkdown(t *testing.T) {
	it := tech.Seed()[1]
	it.Stars = 12500
	it.Resources = []string{"https://react.dev/learn/writing-markup-with-jsx"}

	md := itemMarkdown(it)

	assert.Contains(t, md, "# JSX Syntax")
	assert.Contains(t, md, "**Status:** in-progress")
	assert.Contains(t, md, "12,500")
	assert.Contains(t, md, "## Resources")
	assert.Contains(t, md, "## Notes (1/2)")
	assert.Contains(t, md, "- [x] JSX expressions `1`")
	assert.Contains(t, md, "- [ ] Conditional rendering `2`")
	assert.NotContains(t, md, "Difficulty")
}

func TestItemMarkdown_NoNotes(t *testing.T) {
	md := itemMarkdown(tech.Seed()[2])
	assert.NotContains(t, md, "## Notes")
	assert.Contains(t, md, "**Category:** Advanced React")
}

func TestRenderMarkdown(t *testing.T) {
	out, err := renderMarkdown(itemMarkdown(tech.Seed()[0]))
	require.NoError(t, err)

	plain := ansi.Strip(out)
	assert.Contains(t, plain, "React Components")
	assert.Contains(t, plain, "Status: completed")
	assert.NotContains(t, plain, "**Status:**")
}

func TestRenderStats(t *testing.T) {
	out := renderStats(stats.Compute(tech.Seed()))

	assert.Contains(t, out, "25%")
	assert.Contains(t, out, "Advanced React")
	assert.Contains(t, out, "React Basics")
	assert.Contains(t, out, "3/4")
}
