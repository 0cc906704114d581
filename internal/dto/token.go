package dto

// TokenRequest asks for an ephemeral Live-API token. LockConfig defaults to
// true when omitted.
type TokenRequest struct {
	UserID        string `json:"userId" binding:"required"`
	SystemPrompt  string `json:"systemPrompt"`
	ExpireMinutes int    `json:"expireMinutes"`
	LockConfig    *bool  `json:"lockConfig"`
}

// TokenResponse carries the minted ephemeral token.
type TokenResponse struct {
	Token               string `json:"token"`
	ExpiresAt           string `json:"expiresAt"`
	NewSessionExpiresAt string `json:"newSessionExpiresAt"`
	Model               string `json:"model"`
}
