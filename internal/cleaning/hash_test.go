package cleaning

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentHash_Deterministic(t *testing.T) {
	a := ContentHash("AAPL.US", "Apple Inc.", "US", "Technology")
	b := ContentHash("AAPL.US", "Apple Inc.", "US", "Technology")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	_, err := hex.DecodeString(a)
	require.NoError(t, err)
}

func TestContentHash_EachFieldMatters(t *testing.T) {
	base := ContentHash("AAPL.US", "Apple Inc.", "US", "Technology")
	assert.NotEqual(t, base, ContentHash("AAPL.L", "Apple Inc.", "US", "Technology"))
	assert.NotEqual(t, base, ContentHash("AAPL.US", "Apple", "US", "Technology"))
	assert.NotEqual(t, base, ContentHash("AAPL.US", "Apple Inc.", "GB", "Technology"))
	assert.NotEqual(t, base, ContentHash("AAPL.US", "Apple Inc.", "US", "Hardware"))
}

func TestContentHash_DiffersFromSourceJoin(t *testing.T) {
	assert.NotEqual(t,
		ContentHash("A_B", "C", "US", "X"),
		ContentHash("A", "B_C", "US", "X"),
	)
}

// Fields are joined with a bare '|', so a '|' inside a field can shift the
// boundary. Symbols never contain one; names rarely do.
func TestContentHash_PipeInFieldIsAmbiguous(t *testing.T) {
	assert.Equal(t,
		ContentHash("A|B", "C", "US", "X"),
		ContentHash("A", "B|C", "US", "X"),
	)
}

func TestSourceHash(t *testing.T) {
	a := SourceHash("AAPL.US", "Apple Inc.", "US", "Technology")
	assert.Len(t, a, 32)
	assert.Equal(t, a, SourceHash("AAPL.US", "Apple Inc.", "US", "Technology"))
	assert.NotEqual(t, a, SourceHash("AAPL.US", "Apple", "US", "Technology"))
}

func TestHashSchemesDiffer(t *testing.T) {
	assert.NotEqual(t,
		SourceHash("A", "B", "C", "D"),
		ContentHash("A", "B", "C", "D")[:32],
	)
}
