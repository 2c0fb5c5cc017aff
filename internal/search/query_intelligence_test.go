package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeQuery(t *testing.T) {
	assert.Equal(t, "leaking pipe", NormalizeQuery("  Leaking   PIPE!! "))
	assert.Equal(t, "", NormalizeQuery("   "))
}

func TestExpandQuery(t *testing.T) {
	assert.Equal(t, []string{"leaking pipe", "plumbing"}, ExpandQuery("leaking pipe"))
	assert.Equal(t, []string{"air conditioner", "ac repair"}, ExpandQuery("air conditioner"))
	assert.Empty(t, ExpandQuery(""))
}

func TestMatchesServices(t *testing.T) {
	names := []string{"Plumbing", "General"}
	assert.True(t, MatchesServices(names, ProcessQuery("pipe").Variants))
	assert.True(t, MatchesServices(names, ProcessQuery("plumb").Variants))
	assert.False(t, MatchesServices(names, ProcessQuery("wiring").Variants))
	assert.True(t, MatchesServices(names, nil))
}
