package models

// User represents the signed-in account as described by the identity provider.
//
// The client never stores users itself. The fields are read from the access
// token claims and from the provider's token response.
type User struct {
	// ID is the provider's user identifier (the token subject).
	ID string `json:"id"`

	// Email is the address the user signed in with.
	Email string `json:"email"`

	// Name is the display name from the provider's user metadata, if any.
	Name string `json:"name,omitempty"`
}

// WebSession represents a browser session kept by the web server.
// It lets a signed-in user survive a server restart without signing in again.
type WebSession struct {
	// ID is the session identifier stored in the browser cookie (UUID format).
	ID string

	// UserID and Email identify the signed-in user.
	UserID string
	Email  string

	// AccessToken is the provider's bearer token for the bill-splitting API.
	AccessToken string

	// RefreshToken is the provider's refresh token, sealed at rest.
	RefreshToken string

	// ExpiresAt is the Unix timestamp when the access token expires.
	ExpiresAt int64

	// DivisionID is the division the user was working on, if any.
	// It is used to resume the distribution screen.
	DivisionID string

	// CreatedAt and UpdatedAt are Unix timestamps.
	CreatedAt int64
	UpdatedAt int64
}
