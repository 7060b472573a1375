// Package types provides the shared data shapes of the coJournalist service:
// transcript messages, scrape results, job drafts, scheduled jobs and users.
package types

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Attribution values used on synthetic and failure messages.
const (
	SourceSystem      = "System"
	SourceError       = "Error"
	SourceSystemError = "System Error"
	SourceAPIError    = "API Error"
)

// Message is one transcript entry. Messages are never modified once appended.
type Message struct {
	Role    string  `json:"role"`
	Content string  `json:"content"`
	Image   *string `json:"image"`
	Source  *string `json:"source"`
}

// UserMessage builds a user-authored message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage builds an assistant message. Empty image or source values
// are stored as absent.
func AssistantMessage(content, image, source string) Message {
	return Message{
		Role:    RoleAssistant,
		Content: content,
		Image:   optional(image),
		Source:  optional(source),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ScrapeResult is the outcome of the latest scrape attempt of a session.
type ScrapeResult struct {
	Success bool    `json:"success"`
	Title   string  `json:"title"`
	Preview string  `json:"preview"`
	URL     string  `json:"url"`
	Error   *string `json:"error"`
}

// SubmitChatRequest is the body of a chat submission.
type SubmitChatRequest struct {
	Question string `json:"question"`
}

// SetModeRequest is the body of a mode switch.
type SetModeRequest struct {
	Mode string `json:"mode" validate:"required"`
}

// SetInputRequest is the body of an input echo update.
type SetInputRequest struct {
	Input string `json:"input"`
}
