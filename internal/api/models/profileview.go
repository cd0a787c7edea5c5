package models

// ProfileViewRequest is the request body for unlocking a profile view.
type ProfileViewRequest struct {
	TargetID string `json:"targetId" validate:"required"`
}

// ProfileViewResult is the response for a profile view unlock.
type ProfileViewResult struct {
	// Unlocked reports whether the viewer may read the target's profile.
	Unlocked bool `json:"unlocked"`

	// AlreadyUnlocked is true when no token was charged for this view.
	AlreadyUnlocked bool `json:"alreadyUnlocked"`

	// RemainingTokens is the viewer's balance after this request.
	RemainingTokens int `json:"remainingTokens"`
}

// ProfileViewer is one entry in the who-viewed-me list.
type ProfileViewer struct {
	ViewerID string    `json:"viewerId"`
	ViewedAt Timestamp `json:"viewedAt"`
}

// ProfileViewers is the response for the who-viewed-me list.
type ProfileViewers struct {
	Items []ProfileViewer `json:"items"`
}
