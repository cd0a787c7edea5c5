package models

// BroadcastRequest is the request body for an admin broadcast.
type BroadcastRequest struct {
	Title string `json:"title" validate:"required"`
	Body  string `json:"body" validate:"required"`

	// Target selects the audience segment: all, premium or recently_active.
	Target string `json:"target" validate:"required,oneof=all premium recently_active"`
}

// BroadcastAccepted is the response when a broadcast was queued for the
// worker to fan out.
type BroadcastAccepted struct {
	MessageID string `json:"messageId"`
	Target    string `json:"target"`
}

// BroadcastResult is the response for a synchronously executed broadcast.
type BroadcastResult struct {
	Target      string `json:"target"`
	SentCount   int    `json:"sentCount"`
	FailedCount int    `json:"failedCount"`
}
