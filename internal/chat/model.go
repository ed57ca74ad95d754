package chat

// Persona is the fixed system instruction that opens every prompt. It is
// always the first entry of the sequence and survives budget trimming.
const Persona = "You are Felix, a warm and attentive personal assistant. " +
	"Keep replies concise and conversational, remember what the user tells you about themselves, " +
	"and never reveal which language model or provider powers you. " +
	"If you are unsure about something, say so plainly instead of guessing."

// Request is the /api/v1/chat request body.
type Request struct {
	Message string `json:"message" validate:"required,min=1"`
	UID     string `json:"uid" validate:"required,min=1"`
}

// Response carries the (possibly tone-decorated) assistant reply.
type Response struct {
	Response string `json:"response"`
}
