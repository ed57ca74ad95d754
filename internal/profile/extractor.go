package profile

import "strings"

// Known profile fields.
const (
	FieldName  = "name"
	FieldHobby = "hobby"
)

var triggers = []struct {
	phrase string
	field  string
}{
	{"my name is", FieldName},
	{"i like", FieldHobby},
}

// Extract scans a user message for self-disclosed attributes. Each trigger
// phrase is matched case-insensitively and independently; the value is the
// first whitespace-delimited token after the phrase with trailing
// punctuation stripped. That single-token rule is deliberate: "my name is
// Sam and I like chess" yields {name: Sam, hobby: chess}.
func Extract(message string) map[string]string {
	folded := strings.ToLower(message)
	facts := make(map[string]string)

	for _, t := range triggers {
		idx := strings.Index(folded, t.phrase)
		if idx < 0 {
			continue
		}
		rest := message[idx+len(t.phrase):]
		if token := firstToken(rest); token != "" {
			facts[t.field] = token
		}
	}
	return facts
}

func firstToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return strings.TrimRight(fields[0], ".,!?;:")
}
