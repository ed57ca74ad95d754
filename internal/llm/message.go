package llm

// Role of a prompt message, mirroring the completion API's contract.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the ordered sequence sent to the completion API.
// The completion provider is sensitive to role ordering; producing a
// malformed sequence (history after the final user turn, say) is a defect
// in the caller.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
