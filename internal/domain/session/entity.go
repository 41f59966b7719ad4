package session

// Session represents an authenticated operator's identity. It is created by
// the session service on successful login and destroyed on logout; it
// survives reloads by re-validating against the identity provider.
type Session struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	Role           string `json:"role"`
	ClearanceLevel int    `json:"clearanceLevel"`
	Token          string `json:"token,omitempty"`
}
