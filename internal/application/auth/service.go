package auth

import (
	"context"
	"fmt"
	"time"

	"lodging-backoffice/internal/domain/point"
	"lodging-backoffice/internal/infrastructure/config"
	otelinfra "lodging-backoffice/internal/infrastructure/observability/otel"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// OperatorIDClaim 事業者IDを格納するクレーム名
const OperatorIDClaim = "operator_id"

// AuthApplicationService 事業者トークンを発行するアプリケーションサービス
type AuthApplicationService struct {
	jwtConfig *config.JWTConfig
	logger    *otelinfra.Logger
	now       func() time.Time
}

// NewAuthApplicationService 新しいAuthApplicationServiceを作成
func NewAuthApplicationService(jwtConfig *config.JWTConfig, logger *otelinfra.Logger) *AuthApplicationService {
	return &AuthApplicationService{
		jwtConfig: jwtConfig,
		logger:    logger,
		now:       time.Now,
	}
}

// IssueOperatorToken 事業者IDを含むJWTトークンを発行
func (s *AuthApplicationService) IssueOperatorToken(ctx context.Context, operatorID int64) (*IssueTokenResponse, error) {
	tracer := otel.Tracer("auth-service")
	ctx, span := tracer.Start(ctx, "AuthApplicationService.IssueOperatorToken")
	defer span.End()

	span.SetAttributes(attribute.Int64("operator_id", operatorID))

	if operatorID <= 0 {
		err := fmt.Errorf("%w: %d", point.ErrInvalidOperatorID, operatorID)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Error(ctx, "Invalid operator ID", err, nil)
		return nil, err
	}

	now := s.now()
	expiresAt := now.Add(s.jwtConfig.Expiration)

	claims := jwt.MapClaims{
		OperatorIDClaim: operatorID,
		"iss":           s.jwtConfig.Issuer,
		"iat":           now.Unix(),
		"exp":           expiresAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtConfig.Secret))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Error(ctx, "Failed to issue token", err, map[string]interface{}{
			"operator_id": operatorID,
		})
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.logger.Info(ctx, "Operator token issued", map[string]interface{}{
		"operator_id": operatorID,
		"expires_at":  expiresAt.Unix(),
	})

	return &IssueTokenResponse{
		Token:     tokenString,
		ExpiresIn: int64(s.jwtConfig.Expiration.Seconds()),
		TokenType: "Bearer",
	}, nil
}
