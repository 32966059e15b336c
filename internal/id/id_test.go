package id

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsValid(t *testing.T) {
	generated := New()
	assert.Len(t, generated, 26)
	require.NoError(t, Validate(generated))
}

func TestNewIsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		s := New()
		require.False(t, seen[s], "duplicate ID %s", s)
		seen[s] = true
	}
}

func TestValidateRejectsMalformed(t *testing.T) {
	for _, s := range []string{"", "not-an-id", "01ARZ3NDEKTSV4RRFFQ69G5FA"} {
		assert.Error(t, Validate(s), s)
	}
}
