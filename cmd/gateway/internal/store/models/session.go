package models

import "time"

// SessionStage records how far a caller has progressed. It is advisory:
// transitions key off the session content (language set or not), the stage
// is kept for logs and the health endpoint.
type SessionStage string

const (
	StageInitial          SessionStage = "INITIAL"
	StageLanguageSelected SessionStage = "LANGUAGE_SELECTED"
	StageAwaitingQuestion SessionStage = "AWAITING_QUESTION"
	StageProcessing       SessionStage = "PROCESSING"
)

// Session is one in-progress USSD conversation, persisted in redis between
// callback invocations. The session id is caller supplied and treated as an
// untrusted key.
type Session struct {
	SessionID      string       `json:"session_id"`
	PhoneNumber    string       `json:"phone_number"`
	Language       string       `json:"language,omitempty"`
	Stage          SessionStage `json:"stage"`
	CreatedAt      time.Time    `json:"created_at"`
	LastAccessedAt time.Time    `json:"last_accessed_at"`
}
