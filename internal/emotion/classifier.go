package emotion

import "strings"

// Label is one of the coarse emotion categories Felix understands.
type Label string

const (
	Happy   Label = "happy"
	Sad     Label = "sad"
	Angry   Label = "angry"
	Love    Label = "love"
	Fear    Label = "fear"
	Neutral Label = "neutral"
)

// Priority is the fixed evaluation order. The first label with a keyword
// hit wins, so a text containing both a happy and a sad keyword classifies
// as happy. Reordering this slice changes observable behavior.
var Priority = []Label{Happy, Sad, Angry, Love, Fear}

var keywords = map[Label][]string{
	Happy: {"happy", "joy", "excited", "yay", "cheerful", "delighted"},
	Sad:   {"sad", "depressed", "unhappy", "cry", "tears", "gloomy"},
	Angry: {"angry", "mad", "furious", "irritated", "annoyed"},
	Love:  {"love", "affection", "romantic", "sweetheart", "dear"},
	Fear:  {"scared", "afraid", "fear", "terrified", "panic", "nervous"},
}

// Classify maps free text to a single emotion label by case-folded
// substring matching. Returns Neutral when no keyword matches.
func Classify(text string) Label {
	folded := strings.ToLower(text)
	for _, label := range Priority {
		for _, kw := range keywords[label] {
			if strings.Contains(folded, kw) {
				return label
			}
		}
	}
	return Neutral
}
