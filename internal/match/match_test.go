// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePrefixStage(t *testing.T) {
	keys := []string{"paris_9f2c.png", "rome_abc123.png", "rome_ancient_77d1.png"}

	got, ok := Resolve("Rome", keys)
	require.True(t, ok)
	assert.Equal(t, "rome_abc123.png", got)

	// Case and surrounding whitespace do not matter.
	got, ok = Resolve("  ROME ", keys)
	require.True(t, ok)
	assert.Equal(t, "rome_abc123.png", got)

	// Multi-word names map spaces onto the key separator.
	got, ok = Resolve("Rome Ancient", keys)
	require.True(t, ok)
	assert.Equal(t, "rome_ancient_77d1.png", got)
}

func TestResolvePrefixStagePrefersInputOrder(t *testing.T) {
	keys := []string{"rome_first.png", "rome_second.png"}
	got, ok := Resolve("Rome", keys)
	require.True(t, ok)
	assert.Equal(t, "rome_first.png", got)
}

func TestResolveFuzzyStage(t *testing.T) {
	// No key starts with the normalized name, but one contains every token.
	keys := []string{"ancient_rome_italy_abc.png", "paris_9f2c.png"}

	got, ok := Resolve("Rome (Italy)", keys)
	require.True(t, ok)
	assert.Equal(t, "ancient_rome_italy_abc.png", got)
}

func TestResolveFuzzyStageRequiresAllTokens(t *testing.T) {
	keys := []string{"istanbul_x1.png"}

	// Tokenizes to constantinople/modern/istanbul; no key carries all three.
	_, ok := Resolve("Constantinople (modern Istanbul)", keys)
	assert.False(t, ok)

	// The better-normalized name resolves via the prefix stage.
	got, ok := Resolve("Istanbul", keys)
	require.True(t, ok)
	assert.Equal(t, "istanbul_x1.png", got)
}

func TestResolveNotFound(t *testing.T) {
	_, ok := Resolve("Samarkand", []string{"rome_abc.png", "paris_def.png"})
	assert.False(t, ok)

	_, ok = Resolve("Samarkand", nil)
	assert.False(t, ok)
}

func TestResolveEmptyAndPunctuationOnlyNames(t *testing.T) {
	keys := []string{"rome_abc.png"}

	_, ok := Resolve("", keys)
	assert.False(t, ok)

	_, ok = Resolve("  ?!  ", keys)
	assert.False(t, ok)
}

func TestResolveIsPure(t *testing.T) {
	keys := []string{"lyon_11.png", "lisbon_22.png", "london_33.png"}
	first, ok1 := Resolve("London", keys)
	for i := 0; i < 50; i++ {
		got, ok := Resolve("London", keys)
		require.Equal(t, ok1, ok)
		require.Equal(t, first, got)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Rome", "rome"},
		{"  New   York ", "new_york"},
		{"SÃO PAULO", "são_paulo"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "Normalize(%q)", tt.in)
	}
}
