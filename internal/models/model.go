package models

import "time"

// FallbackFact is returned whenever a real fact cannot be obtained.
const FallbackFact = "Cats have fast reflexes, did you know?"

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

const timestampLayout = "2006-01-02T15:04:05.000Z"

// User is the static profile embedded in every successful response.
type User struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Stack string `json:"stack"`
}

// ProfileResponse is returned by /me on success.
type ProfileResponse struct {
	Status    string `json:"status"`
	User      User   `json:"user"`
	Timestamp string `json:"timestamp"`
	Fact      string `json:"fact"`
}

// ErrorResponse is returned by /me on failure, including rate limit rejections.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Fact    string `json:"fact"`
}

func NewProfileResponse(user User, now time.Time, fact string) ProfileResponse {
	return ProfileResponse{
		Status:    StatusSuccess,
		User:      user,
		Timestamp: FormatTimestamp(now),
		Fact:      fact,
	}
}

func NewErrorResponse(message string) ErrorResponse {
	return ErrorResponse{Status: StatusError, Message: message, Fact: FallbackFact}
}

// FormatTimestamp renders t in UTC with millisecond precision and a Z suffix.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}
