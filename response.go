package controlling_window

import "time"

// OpenRequest is the body of POST /api/v1/window/open.
type OpenRequest struct {
	// Minutes to keep the window open before closing it again.
	Minutes *int `json:"minutes" binding:"required" example:"15"`
}

// CloseRequest is the body of POST /api/v1/window/close.
// Either Minutes or Manual must be set; Manual holds the window closed until the next command.
type CloseRequest struct {
	Minutes *int `json:"minutes,omitempty" example:"30"`
	Manual  bool `json:"manual,omitempty" example:"false"`
}

// StatusResponse is returned by the open/close endpoints.
type StatusResponse struct {
	Status string `json:"status"`
	State  any    `json:"state,omitempty"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SamplesResponse wraps the sample listing.
type SamplesResponse struct {
	Count   int       `json:"count"`
	From    time.Time `json:"from,omitempty"`
	To      time.Time `json:"to,omitempty"`
	Samples any       `json:"samples"`
}

// Credentials is the body of /auth/sign-up and /auth/sign-in.
type Credentials struct {
	Username string `json:"username" binding:"required" example:"balcony"`
	Password string `json:"password" binding:"required" example:"s3cr3t"`
}

// SignUpResponse carries the id of the created operator.
type SignUpResponse struct {
	ID int `json:"id"`
}

// TokenResponse carries a bearer token for /api/v1.
type TokenResponse struct {
	Token string `json:"token"`
}
