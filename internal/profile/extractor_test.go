package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract_NameAndHobby(t *testing.T) {
	facts := Extract("my name is Sam and I like chess")
	assert.Equal(t, map[string]string{
		FieldName:  "Sam",
		FieldHobby: "chess",
	}, facts)
}

func TestExtract_NameOnly(t *testing.T) {
	facts := Extract("Hello, my name is Ana")
	assert.Equal(t, map[string]string{FieldName: "Ana"}, facts)
}

func TestExtract_HobbyOnly(t *testing.T) {
	facts := Extract("i like hiking on weekends")
	assert.Equal(t, map[string]string{FieldHobby: "hiking"}, facts)
}

func TestExtract_CaseInsensitiveTrigger(t *testing.T) {
	facts := Extract("MY NAME IS Bob")
	assert.Equal(t, map[string]string{FieldName: "Bob"}, facts)
}

func TestExtract_PreservesValueCase(t *testing.T) {
	facts := Extract("my name is McLaren")
	assert.Equal(t, "McLaren", facts[FieldName])
}

func TestExtract_StripsTrailingPunctuation(t *testing.T) {
	facts := Extract("my name is Sam.")
	assert.Equal(t, "Sam", facts[FieldName])

	facts = Extract("I like chess!")
	assert.Equal(t, "chess", facts[FieldHobby])
}

func TestExtract_NoTriggers(t *testing.T) {
	assert.Empty(t, Extract("what is the weather today"))
}

func TestExtract_PhraseAtEndOfMessage(t *testing.T) {
	// Trigger present but nothing follows: no fact extracted.
	assert.Empty(t, Extract("my name is"))
	assert.Empty(t, Extract("i like "))
}
