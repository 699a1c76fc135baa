package handlers

const (
	StateCookieName = "oauth_state"

	// maxBodyBytes caps JSON request bodies; history uploads are the largest
	maxBodyBytes = 1 << 20

	ErrInvalidRequestBody  = "Invalid request body"
	ErrUnauthorized        = "Unauthorized"
	ErrInternalServerError = "Internal server error"
	ErrAttemptGone         = "Attempt not found"
)
