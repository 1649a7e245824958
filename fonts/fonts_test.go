package fonts

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLatinModern(t *testing.T) {
	data, err := Load("", "lm:roman10")
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	_, err = Load("", "lm:nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "roman10")
}

func TestLoadRelativeToBaseDir(t *testing.T) {
	dir := t.TempDir()
	want, err := Load("", "lm:sans10")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sans.ttf"), want, 0o644))

	got, err := Load(dir, "sans.ttf")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = Load(dir, "missing.ttf")
	assert.Error(t, err)
	_, err = Load(dir, "")
	assert.Error(t, err)
}

func TestFacesSorted(t *testing.T) {
	faces := Faces()
	assert.Contains(t, faces, "roman10")
	assert.IsNonDecreasing(t, faces)
}

func TestDefaultGlyphMetrics(t *testing.T) {
	tab := Default()
	assert.Same(t, tab, Default())
	shared, err := DefaultErr()
	require.NoError(t, err)
	assert.Same(t, tab, shared)
	assert.Equal(t, []string{"bold", "italic", "mono", "roman", "sans"}, tab.Names())

	x, err := tab.Glyph("roman", 'x')
	require.NoError(t, err)
	assert.Greater(t, x.Width, 3.0)
	assert.Less(t, x.Width, 7.0)
	assert.Greater(t, x.Height, 3.0)
	assert.InDelta(t, 0, x.Depth, 0.1)

	g, err := tab.Glyph("roman", 'g')
	require.NoError(t, err)
	assert.Greater(t, g.Depth, 1.0)

	m, err := tab.Glyph("mono", 'm')
	require.NoError(t, err)
	i, err := tab.Glyph("mono", 'i')
	require.NoError(t, err)
	assert.InDelta(t, m.Width, i.Width, 1e-9, "等宽字体")
}

func TestDefaultFontParams(t *testing.T) {
	fp, err := Default().Font("roman")
	require.NoError(t, err)
	assert.Equal(t, 10.0, fp.Size)
	assert.Equal(t, 10.0, fp.Quad)
	assert.Greater(t, fp.Space, 2.0)
	assert.InDelta(t, fp.Space/2, fp.SpaceStretch, 1e-9)
	assert.InDelta(t, fp.Space/3, fp.SpaceShrink, 1e-9)
	assert.Greater(t, fp.XHeight, 3.0)
}

func TestErrors(t *testing.T) {
	tab := Default()
	_, err := tab.Glyph("nope", 'a')
	assert.Error(t, err)
	_, err = tab.Font("nope")
	assert.Error(t, err)
	assert.Zero(t, tab.Kern("nope", 'A', 'V'))

	_, err = tab.Glyph("roman", '\U0001F600')
	assert.Error(t, err)

	fresh := NewTable()
	assert.Error(t, fresh.Register("bad", []byte("not a font"), 10))
	data, err := Load("", "lm:roman10")
	require.NoError(t, err)
	assert.Error(t, fresh.Register("zero", data, 0))
	assert.Error(t, fresh.Register("", data, 10))
}

func TestRegisterScalesWithSize(t *testing.T) {
	data, err := Load("", "lm:roman10")
	require.NoError(t, err)
	tab := NewTable()
	require.NoError(t, tab.Register("small", data, 10))
	require.NoError(t, tab.Register("large", data, 20))

	small, err := tab.Glyph("small", 'M')
	require.NoError(t, err)
	large, err := tab.Glyph("large", 'M')
	require.NoError(t, err)
	assert.InDelta(t, 2*small.Width, large.Width, 1e-6)
	assert.InDelta(t, 2*small.Height, large.Height, 1e-6)
}

func TestKernIsCached(t *testing.T) {
	tab := Default()
	k := tab.Kern("roman", 'A', 'V')
	assert.LessOrEqual(t, k, 0.0)
	assert.Equal(t, k, tab.Kern("roman", 'A', 'V'))
	assert.Zero(t, tab.Kern("roman", 'a', 'a'))
}

func TestConcurrentLookups(t *testing.T) {
	tab := Default()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, r := range "The quick brown fox" {
				_, err := tab.Glyph("roman", r)
				assert.NoError(t, err)
				tab.Kern("roman", r, 'o')
			}
		}()
	}
	wg.Wait()
}
