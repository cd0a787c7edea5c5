package models

// Notification represents one outbox entry for the authenticated member.
type Notification struct {
	ID        string    `json:"id"`
	SenderID  string    `json:"senderId,omitempty"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	IsRead    bool      `json:"isRead"`
	RelatedID string    `json:"relatedId,omitempty"`
	CreatedAt Timestamp `json:"createdAt"`
}

// Notifications is the response for a notification listing, newest first.
type Notifications struct {
	Items []Notification `json:"items"`
}

// MarkReadResult is the response for marking a single notification read.
type MarkReadResult struct {
	Found bool `json:"found"`
}

// MarkAllReadResult is the response for marking every notification read.
type MarkAllReadResult struct {
	Count int64 `json:"count"`
}

// UnreadCountResult is the response for the unread badge count.
type UnreadCountResult struct {
	Count int64 `json:"count"`
}
