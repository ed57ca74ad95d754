package emotion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_SingleCategory(t *testing.T) {
	tests := []struct {
		text string
		want Label
	}{
		{"I am so happy today", Happy},
		{"feeling gloomy and down", Sad},
		{"this makes me furious", Angry},
		{"I love this song", Love},
		{"I'm terrified of spiders", Fear},
		{"what time is it", Neutral},
		{"", Neutral},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.text), "text: %q", tt.text)
	}
}

func TestClassify_CaseFolded(t *testing.T) {
	assert.Equal(t, Happy, Classify("HAPPY DAYS"))
	assert.Equal(t, Love, Classify("LoVe you"))
}

// The evaluation order is a pinned contract: happy, sad, angry, love, fear.
func TestClassify_PriorityOrder(t *testing.T) {
	assert.Equal(t, []Label{Happy, Sad, Angry, Love, Fear}, Priority)

	// happy beats sad
	assert.Equal(t, Happy, Classify("happy but also sad"))
	// sad beats angry
	assert.Equal(t, Sad, Classify("angry tears"))
	// angry beats love
	assert.Equal(t, Angry, Classify("I love it when you're mad"))
	// love beats fear
	assert.Equal(t, Love, Classify("love conquers fear"))
}

func TestClassify_SubstringMatch(t *testing.T) {
	// Substring semantics are intentional: "madness" contains "mad".
	assert.Equal(t, Angry, Classify("sheer madness"))
}

func TestApplyTone_Neutral_Identity(t *testing.T) {
	reply := "The capital of France is Paris."
	assert.Equal(t, reply, ApplyTone(reply, "what is the capital of France?"))
}

func TestApplyTone_Templates(t *testing.T) {
	tests := []struct {
		userMsg string
		want    string
	}{
		{"I'm so happy", "😊 ok Yay!"},
		{"I want to cry", "😢 ok Things will get better!"},
		{"I'm really annoyed", "😠 ok Try to calm down."},
		{"I love you", "❤️ ok You're special!"},
		{"I'm scared", "😨 ok Stay strong, I'm with you."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ApplyTone("ok", tt.userMsg))
	}
}

func TestApplyTone_UsesUserMessageNotReply(t *testing.T) {
	// The reply mentions sadness but the user message is neutral,
	// so no decoration is applied.
	reply := "That is a sad story indeed."
	assert.Equal(t, reply, ApplyTone(reply, "tell me a story"))
}
