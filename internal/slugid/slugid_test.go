package slugid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_ProducesRequestedLength(t *testing.T) {
	s, err := Generate(6)
	require.NoError(t, err)
	assert.Len(t, s, 6)
	assert.True(t, ValidGenerated(s, 6))
}

func TestGenerateBatch_Deduplicates(t *testing.T) {
	batch, err := GenerateBatch(200, 6)
	require.NoError(t, err)
	assert.Len(t, batch, 200)

	seen := make(map[string]struct{}, len(batch))
	for _, s := range batch {
		_, dup := seen[s]
		assert.False(t, dup, "batch must be pre-deduplicated")
		seen[s] = struct{}{}
	}
}

func TestValidAlias(t *testing.T) {
	cases := map[string]bool{
		"abc":                  true,
		"ab":                   false, // too short
		"valid-Alias1":         false, // hyphen not in this alphabet
		"":                     false,
		"ThisIsExactlySixty4Chars0123456789012345678901234567890123456789": true,
	}
	for alias, want := range cases {
		assert.Equal(t, want, ValidAlias(alias), "alias=%q", alias)
	}
}

func TestValidGenerated_RejectsWrongLength(t *testing.T) {
	assert.False(t, ValidGenerated("abc", 6))
	assert.False(t, ValidGenerated("", 6))
	assert.True(t, ValidGenerated("abcdef", 6))
}
