package models

// EngagementActionRequest is the request body for recording or withdrawing
// an engagement action.
type EngagementActionRequest struct {
	TargetID string `json:"targetId" validate:"required"`
	Kind     string `json:"kind" validate:"required,oneof=interest shortlist reject accept"`
}

// EngagementAction represents a recorded action between two members.
type EngagementAction struct {
	ID        string    `json:"id"`
	ActorID   string    `json:"actorId"`
	TargetID  string    `json:"targetId"`
	Kind      string    `json:"kind"`
	CreatedAt Timestamp `json:"createdAt"`
	UpdatedAt Timestamp `json:"updatedAt"`
}

// EngagementActionResult is the response for an upsert.
type EngagementActionResult struct {
	// Created is false when the same action already existed and only its
	// timestamp was refreshed.
	Created bool             `json:"created"`
	Action  EngagementAction `json:"action"`
}

// EngagementWithdrawResult is the response for a withdrawal.
type EngagementWithdrawResult struct {
	Found bool `json:"found"`
}

// EngagementActions is the response for an action listing.
type EngagementActions struct {
	Items []EngagementAction `json:"items"`
}
