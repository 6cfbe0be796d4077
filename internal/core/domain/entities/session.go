package entities

// Session is the authenticated identity returned by the auth provider.
type Session struct {
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// CompletionResult reports the outcome of a task submission. RewardCredited
// is false when the submission landed but the wallet credit did not; callers
// show a "reward pending" message in that case rather than an error.
type CompletionResult struct {
	Ack            *SubmissionAck `json:"ack"`
	RewardAmount   string         `json:"reward_amount"`
	RewardCredited bool           `json:"reward_credited"`
}
