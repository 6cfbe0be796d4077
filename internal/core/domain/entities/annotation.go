package entities

import (
	"encoding/json"
	"time"

	"task-wallet/internal/core/domain/exceptions"
)

// Annotation is the user's answer for a task. The result values are shaped
// per category (choice list, rating, free text, pairwise preference, survey
// responses) and are passed through to the backend unmodified.
type Annotation struct {
	Result []json.RawMessage `json:"result"`
}

func (a *Annotation) Validate() error {
	if a == nil || len(a.Result) == 0 {
		return exceptions.ErrAnnotationEmpty
	}
	return nil
}

// SubmissionAck is the backend's acknowledgment of a submitted annotation.
// Synthesized is set when the ack was produced locally by the offline
// fallback instead of by the backend.
type SubmissionAck struct {
	ID          int64     `json:"id"`
	TaskID      int64     `json:"task"`
	CreatedAt   time.Time `json:"created_at"`
	Synthesized bool      `json:"-"`
}
