package service

import (
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/olehkravets/satzwerk/internal/models"
	"github.com/olehkravets/satzwerk/pkg/config"
	appErrors "github.com/olehkravets/satzwerk/pkg/errors"
)

// AuthService mints user-scoped access tokens for trusted gateways. A
// gateway (chat bot, web app) authenticates with its pre-shared key and
// receives a JWT bound to the learner it is acting for.
type AuthService struct {
	cfg       config.AuthConfig
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(cfg config.AuthConfig, validate *validator.Validate, logger *zap.Logger) *AuthService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{cfg: cfg, validator: validate, logger: logger}
}

// IssueToken verifies the gateway key and returns a signed access token for
// the named learner.
func (s *AuthService) IssueToken(req models.TokenRequest) (*models.TokenResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid token payload")
	}

	if s.cfg.GatewayKeyHash == "" {
		return nil, appErrors.Clone(appErrors.ErrInternal, "gateway key not configured")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.GatewayKeyHash), []byte(req.GatewayKey)); err != nil {
		s.logger.Warn("gateway key rejected", zap.String("channel", req.Channel))
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
	}

	issuedAt := time.Now().UTC()
	expiresAt := issuedAt.Add(s.cfg.JWTExpiration)
	claims := &models.JWTClaims{
		UserID:   req.UserID,
		Username: req.Username,
		Channel:  req.Channel,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(req.UserID, 10),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign token")
	}

	return &models.TokenResponse{
		AccessToken: signed,
		ExpiresIn:   int64(s.cfg.JWTExpiration.Seconds()),
		IssuedAt:    issuedAt,
	}, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}
