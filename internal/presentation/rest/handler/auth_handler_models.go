package handler

// TokenResponse トークン発行レスポンス
type TokenResponse struct {
	Token     string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	ExpiresIn int64  `json:"expires_in" example:"86400"`
	TokenType string `json:"token_type" example:"Bearer"`
}
