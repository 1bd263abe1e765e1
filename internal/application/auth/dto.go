package auth

// IssueTokenResponse トークン発行レスポンス
type IssueTokenResponse struct {
	Token     string
	ExpiresIn int64  // 秒単位
	TokenType string // "Bearer"
}
