package pagetable

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteLoadRoundTrip(t *testing.T) {
	table := Table{7: 12, 3: 4, 99: 0}
	path := filepath.Join(t.TempDir(), "page_table.txt")
	require.NoError(t, table.WriteFile(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, table, loaded)
}

func TestAverageLength(t *testing.T) {
	table := Table{1: 10, 2: 20, 3: 30}
	assert.InDelta(t, 20.0, table.AverageLength(), 1e-12)
	assert.Zero(t, Table{}.AverageLength())
}

func TestLoadSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page_table.txt")
	content := "1\t5\nnot-a-number\t3\n2\t\n4 9\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	table, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Table{1: 5, 4: 9}, table)
}

func TestSetOverwrites(t *testing.T) {
	table := make(Table)
	table.Set(5, 10)
	table.Set(5, 3)
	assert.Equal(t, uint32(3), table[5])
}
