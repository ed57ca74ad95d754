package emotion

import "fmt"

var toneTemplates = map[Label]string{
	Happy: "😊 %s Yay!",
	Sad:   "😢 %s Things will get better!",
	Angry: "😠 %s Try to calm down.",
	Love:  "❤️ %s You're special!",
	Fear:  "😨 %s Stay strong, I'm with you.",
}

// ApplyTone decorates a reply according to the emotion of the user's
// message, not the reply's own content. Neutral is the identity transform.
// The decoration is cosmetic only; callers persist the undecorated reply.
func ApplyTone(reply, userMessage string) string {
	tpl, ok := toneTemplates[Classify(userMessage)]
	if !ok {
		return reply
	}
	return fmt.Sprintf(tpl, reply)
}
