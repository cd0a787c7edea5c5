package models

// DeviceRegisterRequest is the request body for registering a push device.
type DeviceRegisterRequest struct {
	Platform    string `json:"platform" validate:"required,oneof=mobile web"`
	Token       string `json:"token" validate:"required"`
	DeviceLabel string `json:"deviceLabel,omitempty"`
}

// Device represents a registered push device. The raw token is never
// echoed back; only its last four characters are exposed.
type Device struct {
	ID          string    `json:"id"`
	Platform    string    `json:"platform"`
	TokenLast4  string    `json:"tokenLast4"`
	DeviceLabel string    `json:"deviceLabel,omitempty"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   Timestamp `json:"createdAt"`
	UpdatedAt   Timestamp `json:"updatedAt"`
}

// Devices is the response for a device listing.
type Devices struct {
	Items []Device `json:"items"`
}
