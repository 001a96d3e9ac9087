package domain

import "time"

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is a single turn in the visible conversation.
type ChatMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Agent     string    `json:"agent,omitempty"`
	Model     string    `json:"model,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// TurnRequest is the outbound request sent to the backend for one user
// turn. Image carries base64-encoded JPEG data when present.
type TurnRequest struct {
	Message        string `json:"message"`
	CustomerID     string `json:"customer_id"`
	ConversationID string `json:"conversation_id"`
	Image          string `json:"image,omitempty"`
}
