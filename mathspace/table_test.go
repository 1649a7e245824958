package mathspace

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ByLCY/galley/box"
)

func TestBinarySpacingInTextStyle(t *testing.T) {
	got := Spacing([]box.AtomClass{box.Ord, box.Bin, box.Ord}, Text)
	assert.Equal(t, []Level{Medium, Medium}, got)
}

func TestFencesInsertNothing(t *testing.T) {
	assert.Equal(t, []Level{None, None}, Spacing([]box.AtomClass{box.Open, box.Ord, box.Close}, Text))
	// a Bin right after Open turns into Ord
	assert.Equal(t, []Level{None, None, None}, Spacing([]box.AtomClass{box.Open, box.Bin, box.Ord, box.Close}, Display))
	assert.Equal(t, None, Between(box.Open, box.Close, Display))
}

func TestScriptStyleDropsParenthesisedEntries(t *testing.T) {
	assert.Equal(t, []Level{None, None}, Spacing([]box.AtomClass{box.Ord, box.Bin, box.Ord}, Script))
	assert.Equal(t, Thin, Between(box.Ord, box.Op, ScriptScript))
	assert.Equal(t, Thick, Between(box.Ord, box.Rel, Display))
	assert.Equal(t, None, Between(box.Ord, box.Rel, Script))
}

func TestReclassify(t *testing.T) {
	in := []box.AtomClass{box.Bin, box.Ord, box.Bin, box.Rel, box.Ord, box.Bin}
	got := Reclassify(in)
	assert.Equal(t, []box.AtomClass{box.Ord, box.Ord, box.Ord, box.Rel, box.Ord, box.Ord}, got)
	assert.Equal(t, box.Bin, in[0], "input must not change")

	keep := Reclassify([]box.AtomClass{box.Ord, box.Bin, box.Open})
	assert.Equal(t, box.Bin, keep[1])
}

func TestMuskipGlue(t *testing.T) {
	g, ok := DefaultMuskips.Glue(Medium, 18)
	assert.True(t, ok)
	assert.Equal(t, box.Glue{Space: 4, Stretch: 2, Shrink: 4}, g)

	g, ok = DefaultMuskips.Glue(Thin, 9)
	assert.True(t, ok)
	assert.InDelta(t, 1.5, g.Space, 1e-12)

	_, ok = DefaultMuskips.Glue(None, 18)
	assert.False(t, ok)
}

func TestParseStyle(t *testing.T) {
	s, ok := ParseStyle("scriptscript")
	assert.True(t, ok)
	assert.Equal(t, ScriptScript, s)
	_, ok = ParseStyle("huge")
	assert.False(t, ok)
}
