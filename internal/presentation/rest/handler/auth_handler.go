package handler

import (
	"context"
	"net/http"

	authapp "lodging-backoffice/internal/application/auth"

	"github.com/labstack/echo/v4"
)

// TokenIssuer 事業者トークンの発行
type TokenIssuer interface {
	IssueOperatorToken(ctx context.Context, operatorID int64) (*authapp.IssueTokenResponse, error)
}

// AuthHandler 認証関連ハンドラー（管理API用）
type AuthHandler struct {
	authService TokenIssuer
}

// NewAuthHandler 新しいAuthHandlerを作成
func NewAuthHandler(authService TokenIssuer) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// IssueOperatorToken 事業者トークン発行ハンドラー
func (h *AuthHandler) IssueOperatorToken(c echo.Context) error {
	operatorID, err := pathID(c, "operator_id")
	if err != nil {
		return err
	}

	resp, err := h.authService.IssueOperatorToken(c.Request().Context(), operatorID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, TokenResponse{
		Token:     resp.Token,
		ExpiresIn: resp.ExpiresIn,
		TokenType: resp.TokenType,
	})
}
