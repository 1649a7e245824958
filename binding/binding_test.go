package binding

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(t *testing.T) any {
	t.Helper()
	var data any
	require.NoError(t, json.Unmarshal([]byte(`{
		"user": {"name": "Ada", "tags": ["a", "b"]},
		"count": 3,
		"ratio": 0.25,
		"rows": [{"cells": [1, 2]}]
	}`), &data))
	return data
}

func TestInterpolate(t *testing.T) {
	data := sample(t)
	cases := map[string]string{
		"Hello, ${user.name}!":         "Hello, Ada!",
		"${data.user.name}":            "Ada",
		"${ user.tags[1] }":            "b",
		"${count} items at ${ratio}":   "3 items at 0.25",
		"cell ${rows[0].cells[1]}":     "cell 2",
		"keep ${user.missing} as is":   "keep ${user.missing} as is",
		"bad index ${user.tags[x]}":    "bad index ${user.tags[x]}",
		"out of range ${user.tags[5]}": "out of range ${user.tags[5]}",
		"no placeholders":              "no placeholders",
	}
	for in, want := range cases {
		assert.Equal(t, want, Interpolate(in, data), in)
	}
}

func TestExpandReportsMissing(t *testing.T) {
	out, missing := Expand("${user.name} ${nope} ${user.age}", sample(t))
	assert.Equal(t, "Ada ${nope} ${user.age}", out)
	assert.Equal(t, []string{"nope", "user.age"}, missing)
}

func TestNilData(t *testing.T) {
	out, missing := Expand("x ${a}", nil)
	assert.Equal(t, "x ${a}", out)
	assert.Equal(t, []string{"a"}, missing)
}

func TestDataKeyShadowsPrefix(t *testing.T) {
	data := map[string]any{"data": map[string]any{"v": "inner"}, "v": "outer"}
	assert.Equal(t, "inner", Interpolate("${data.v}", data))
	assert.Equal(t, "outer", Interpolate("${v}", data))
}
