package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/kenshuhub/kenshuhub-backend/internal/platform/ctxutil"
	"github.com/kenshuhub/kenshuhub-backend/internal/platform/logger"
	"github.com/kenshuhub/kenshuhub-backend/internal/repos"
	"github.com/kenshuhub/kenshuhub-backend/internal/types"
)

type JWTClaims struct {
	Username   string  `json:"username"`
	Role       string  `json:"role"`
	TenantID   *string `json:"tenant_id,omitempty"`
	IndustryID *string `json:"industry_id,omitempty"`
	jwt.RegisteredClaims
}

type LoginResult struct {
	Token string      `json:"token"`
	User  *types.User `json:"user"`
}

type AuthService interface {
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	GenerateToken(user *types.User) (string, error)
	ContextFromToken(ctx context.Context, tokenString string) (*ctxutil.RequestContext, error)
}

type authService struct {
	db           *gorm.DB
	userRepo     repos.UserRepo
	jwtSecretKey string
	tokenTTL     time.Duration
	log          *logger.Logger
}

func NewAuthService(db *gorm.DB, userRepo repos.UserRepo, jwtSecretKey string, tokenTTL time.Duration, baseLog *logger.Logger) AuthService {
	serviceLog := baseLog.With("service", "AuthService")
	return &authService{
		db:           db,
		userRepo:     userRepo,
		jwtSecretKey: jwtSecretKey,
		tokenTTL:     tokenTTL,
		log:          serviceLog,
	}
}

func (s *authService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrValidation)
	}

	user, err := s.userRepo.GetByUsername(ctx, nil, username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: invalid username or password", ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: invalid username or password", ErrUnauthorized)
	}

	token, err := s.GenerateToken(user)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	s.log.Info("User logged in", "username", user.Username, "role", user.Role)
	return &LoginResult{Token: token, User: user}, nil
}

func (s *authService) GenerateToken(user *types.User) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	if user.TenantID != nil {
		v := user.TenantID.String()
		claims.TenantID = &v
	}
	if user.IndustryID != nil {
		v := user.IndustryID.String()
		claims.IndustryID = &v
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecretKey))
}

// ContextFromToken validates the token and rebuilds the request context from
// its claims. Tokens minted before roles and tenants existed carry neither,
// so those fall back to a user lookup instead of being rejected.
func (s *authService) ContextFromToken(ctx context.Context, tokenString string) (*ctxutil.RequestContext, error) {
	parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(s.jwtSecretKey), nil
	})
	if err != nil || !parsedToken.Valid {
		return nil, fmt.Errorf("%w: invalid or expired token", ErrUnauthorized)
	}
	claims, ok := parsedToken.Claims.(*JWTClaims)
	if !ok {
		return nil, fmt.Errorf("%w: invalid token claims", ErrUnauthorized)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid token subject", ErrUnauthorized)
	}

	if claims.Role == "" {
		user, err := s.userRepo.GetByID(ctx, nil, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user no longer exists", ErrUnauthorized)
		}
		if err != nil {
			return nil, err
		}
		return requestContextFromUser(user), nil
	}

	rc := &ctxutil.RequestContext{
		UserID:   userID,
		Username: claims.Username,
		Role:     claims.Role,
	}
	if claims.TenantID != nil {
		if id, err := uuid.Parse(*claims.TenantID); err == nil {
			rc.TenantID = &id
		}
	}
	if claims.IndustryID != nil {
		if id, err := uuid.Parse(*claims.IndustryID); err == nil {
			rc.IndustryID = &id
		}
	}
	return rc, nil
}

func requestContextFromUser(user *types.User) *ctxutil.RequestContext {
	role := user.Role
	if role == "" {
		role = ctxutil.RoleUser
	}
	return &ctxutil.RequestContext{
		UserID:     user.ID,
		Username:   user.Username,
		Role:       role,
		TenantID:   user.TenantID,
		IndustryID: user.IndustryID,
	}
}
