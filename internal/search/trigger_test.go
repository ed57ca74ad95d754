package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldSearch_Interrogative(t *testing.T) {
	assert.True(t, ShouldSearch("what is the capital of France?"))
	assert.True(t, ShouldSearch("who was Marie Curie"))
	assert.True(t, ShouldSearch("where do penguins live"))
	assert.True(t, ShouldSearch("explain quantum entanglement"))
	assert.True(t, ShouldSearch("define photosynthesis"))
	assert.True(t, ShouldSearch("tell me about the Roman Empire"))
}

func TestShouldSearch_Recency(t *testing.T) {
	assert.True(t, ShouldSearch("any news on the election"))
	assert.True(t, ShouldSearch("latest iPhone release"))
	assert.True(t, ShouldSearch("what's happening today"))
	assert.True(t, ShouldSearch("current exchange rate"))
}

func TestShouldSearch_HowTo(t *testing.T) {
	assert.True(t, ShouldSearch("how to bake sourdough"))
	assert.True(t, ShouldSearch("a tutorial on knitting"))
	assert.True(t, ShouldSearch("beginner guide for chess"))
}

// Unanchored matching is deliberate: the trigger fires even when the
// pattern appears mid-sentence.
func TestShouldSearch_Unanchored(t *testing.T) {
	assert.True(t, ShouldSearch("I was wondering what is a black hole"))
	assert.True(t, ShouldSearch("can you show me how to whistle"))
}

func TestShouldSearch_CaseInsensitive(t *testing.T) {
	assert.True(t, ShouldSearch("WHAT IS LOVE"))
	assert.True(t, ShouldSearch("Tell Me About cats"))
}

func TestShouldSearch_PlainChat(t *testing.T) {
	assert.False(t, ShouldSearch("hello there"))
	assert.False(t, ShouldSearch("my name is Sam"))
	assert.False(t, ShouldSearch("I like chess"))
	assert.False(t, ShouldSearch("thanks, that was helpful"))
}
