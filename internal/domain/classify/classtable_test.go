package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClassTable(t *testing.T) {
	t.Run("preserves order", func(t *testing.T) {
		table, err := NewClassTable([]string{"BLA", "NGS", "LYT"}, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"BLA", "NGS", "LYT"}, table.Classes())
		assert.Equal(t, 3, table.Len())
	})

	t.Run("duplicates keep first position", func(t *testing.T) {
		table, err := NewClassTable([]string{"BLA", "NGS", "BLA"}, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"BLA", "NGS"}, table.Classes())

		i, ok := table.Index("BLA")
		require.True(t, ok)
		assert.Equal(t, 0, i)
	})

	t.Run("empty table rejected", func(t *testing.T) {
		_, err := NewClassTable(nil, nil)
		assert.ErrorIs(t, err, ErrEmptyClassTable)
	})
}

func TestClassTableDisplayName(t *testing.T) {
	table, err := NewClassTable([]string{"BLA", "XYZ"}, map[string]string{"BLA": "Blast"})
	require.NoError(t, err)

	assert.Equal(t, "Blast", table.DisplayName("BLA"))
	// Unknown codes fall back to the code itself.
	assert.Equal(t, "XYZ", table.DisplayName("XYZ"))
}
