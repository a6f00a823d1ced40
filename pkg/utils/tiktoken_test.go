package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountTokens(t *testing.T) {
	tc := NewTokenCounter()

	assert.Equal(t, 0, tc.CountTokens(""))
	assert.Positive(t, tc.CountTokens("hello world"))

	// Longer text produces more tokens.
	short := tc.CountTokens("hello")
	long := tc.CountTokens(strings.Repeat("hello world ", 50))
	assert.Greater(t, long, short)
}

func TestCountTokensFallback(t *testing.T) {
	tc := &TokenCounter{} // nil codec forces the character estimate

	assert.Equal(t, 0, tc.CountTokens("abc"))
	assert.Equal(t, 3, tc.CountTokens(strings.Repeat("x", 12)))
}

func TestWithinLimit(t *testing.T) {
	tc := NewTokenCounter()

	assert.True(t, tc.WithinLimit("short", 100))
	assert.False(t, tc.WithinLimit(strings.Repeat("word ", 1000), 10))
}

func TestTruncateToTokenLimit(t *testing.T) {
	tc := NewTokenCounter()

	short := "fits already"
	assert.Equal(t, short, tc.TruncateToTokenLimit(short, 100))

	long := strings.Repeat("some words here ", 200)
	truncated := tc.TruncateToTokenLimit(long, 20)
	require.Less(t, len(truncated), len(long))
	assert.True(t, strings.HasSuffix(truncated, "..."))
	assert.LessOrEqual(t, tc.CountTokens(truncated), 25) // margin for the ellipsis
}
