package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultMaxTokens is the token budget used when a request does not set one
const DefaultMaxTokens = 1000

// CodeRequest is the inbound request for code generation.
// Prompt is nil only when the field is absent; an empty prompt binds.
type CodeRequest struct {
	Prompt    *string `json:"prompt" binding:"required"`
	Language  string  `json:"language,omitempty"`
	MaxTokens int     `json:"max_tokens,omitempty" binding:"omitempty,min=1,max=1000000"`
	Format    *bool   `json:"format,omitempty"`
}

// NewCodeRequest creates a request for prompt with default options
func NewCodeRequest(prompt string) CodeRequest {
	return CodeRequest{Prompt: &prompt}
}

// PromptText returns the prompt, or "" when it is absent
func (r CodeRequest) PromptText() string {
	if r.Prompt == nil {
		return ""
	}
	return *r.Prompt
}

// ShouldFormat reports whether formatting was requested. Absent means true.
func (r CodeRequest) ShouldFormat() bool {
	return r.Format == nil || *r.Format
}

// TokenBudget returns the requested budget or the default
func (r CodeRequest) TokenBudget() int {
	if r.MaxTokens <= 0 {
		return DefaultMaxTokens
	}
	return r.MaxTokens
}

// CodeResponse is the result of a successful generation
type CodeResponse struct {
	GeneratedCode string `json:"generated_code"`
	Language      string `json:"language"`
}

// GenerationStatus is the terminal state of a generation
type GenerationStatus string

const (
	GenerationStatusResponded GenerationStatus = "responded"
	GenerationStatusFailed    GenerationStatus = "failed"
)

// GenerationEvent is published once per request after it reaches a terminal state
type GenerationEvent struct {
	ID        uuid.UUID        `json:"id"`
	RequestID string           `json:"request_id,omitempty"`
	Language  string           `json:"language,omitempty"`
	Status    GenerationStatus `json:"status"`
	ErrorKind string           `json:"error_kind,omitempty"`
	Formatted bool             `json:"formatted"`
	Rewritten bool             `json:"rewritten"`
	LatencyMs int64            `json:"latency_ms"`
	CreatedAt time.Time        `json:"created_at"`
}

// Subject returns the event bus subject for the event
func (e GenerationEvent) Subject() string {
	if e.Status == GenerationStatusFailed {
		return "codegen.failed"
	}
	return "codegen.generated"
}
