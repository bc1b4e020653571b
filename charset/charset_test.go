package charset

import (
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oy3o/biff"
)

func wide(s string) []uint16 { return utf16.Encode([]rune(s)) }

func TestNewDefaults(t *testing.T) {
	c, err := New(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultCodePage, c.CodePage())
	assert.Equal(t, byte('?'), c.replacement)
}

func TestForCodePageUnknown(t *testing.T) {
	_, err := ForCodePage(1200)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1200")
}

func TestCodePagesSorted(t *testing.T) {
	cps := CodePages()
	require.NotEmpty(t, cps)
	assert.IsIncreasing(t, cps)
	assert.Contains(t, cps, DefaultCodePage)
}

func TestNarrowToWide(t *testing.T) {
	c, err := ForCodePage(1252)
	require.NoError(t, err)

	got, err := c.NarrowToWide([]byte{'c', 'a', 'f', 0xE9, 0x80})
	require.NoError(t, err)
	assert.Equal(t, wide("café€"), got)
}

func TestWideToNarrow(t *testing.T) {
	c, err := ForCodePage(1252)
	require.NoError(t, err)

	t.Run("Mapped", func(t *testing.T) {
		got, err := c.WideToNarrow(wide("café"))
		require.NoError(t, err)
		assert.Equal(t, []byte{'c', 'a', 'f', 0xE9}, got)
	})

	t.Run("Folded", func(t *testing.T) {
		// U+0151 is not in Windows-1252; its base letter is.
		got, err := c.WideToNarrow(wide("Erdős"))
		require.NoError(t, err)
		assert.Equal(t, []byte("Erdos"), got)
	})

	t.Run("Replaced", func(t *testing.T) {
		got, err := c.WideToNarrow(wide("a日b"))
		require.NoError(t, err)
		assert.Equal(t, []byte("a?b"), got)
	})

	t.Run("CustomReplacement", func(t *testing.T) {
		c, err := New(&Options{CodePage: 28591, Replacement: '_'})
		require.NoError(t, err)
		got, err := c.WideToNarrow(wide("日"))
		require.NoError(t, err)
		assert.Equal(t, []byte("_"), got)
	})
}

func TestTransliteratedFontName(t *testing.T) {
	c, err := ForCodePage(1252)
	require.NoError(t, err)

	b := biff.NewBuffer(nil)
	defer b.Close()
	require.NoError(t, b.AppendWideString(c, wide("Zaïre Ő"), biff.Len1NoFlags))
	assert.Equal(t, []byte{7, 'Z', 'a', 0xEF, 'r', 'e', ' ', 'O'}, b.Bytes())
}
