package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"linkup-chat/config"
	"linkup-chat/internal/domain"
	"linkup-chat/internal/repository"
	chat_errors "linkup-chat/pkg/errors"
)

// AuthService is the identity provider for the messaging subsystem: it
// issues and validates the tokens that tie requests to a user session.
type AuthService struct {
	userRepo  repository.UserRepository
	jwtSecret []byte
	accessTTL time.Duration
}

func NewAuthService(userRepo repository.UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		jwtSecret: []byte(cfg.JWTSecret),
		accessTTL: time.Duration(cfg.JWTExpiryMin) * time.Minute,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
}

type AuthResponse struct {
	AccessToken string   `json:"access_token"`
	ExpiresIn   int64    `json:"expires_in"`
	User        UserInfo `json:"user"`
}

type UserInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	ProfilePic string `json:"profile_pic,omitempty"`
}

type AccessClaims struct {
	UserID string `json:"sub"`
	jwt.RegisteredClaims
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (AuthResponse, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Name == "" || in.Email == "" || !strings.Contains(in.Email, "@") || len(in.Password) < 8 {
		return AuthResponse{}, chat_errors.ErrInvalidInput
	}

	if _, err := s.userRepo.GetByEmail(ctx, in.Email); err == nil {
		return AuthResponse{}, chat_errors.ErrAlreadyExists
	} else if !errors.Is(err, chat_errors.ErrNotFound) {
		return AuthResponse{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return AuthResponse{}, err
	}

	newUser := &domain.User{
		ID:           uuid.New(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	if err := s.userRepo.Create(ctx, newUser); err != nil {
		return AuthResponse{}, err
	}

	return s.issueToken(*newUser)
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (AuthResponse, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Email == "" || in.Password == "" {
		return AuthResponse{}, chat_errors.ErrInvalidInput
	}

	u, err := s.userRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, chat_errors.ErrNotFound) {
			return AuthResponse{}, chat_errors.ErrUnauthorized
		}
		return AuthResponse{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)) != nil {
		return AuthResponse{}, chat_errors.ErrUnauthorized
	}

	return s.issueToken(u)
}

func (s *AuthService) issueToken(u domain.User) (AuthResponse, error) {
	now := time.Now()
	claims := AccessClaims{
		UserID: u.ID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return AuthResponse{}, err
	}

	info := UserInfo{ID: u.ID.String(), Name: u.Name, Email: u.Email}
	if u.ProfilePic != nil {
		info.ProfilePic = *u.ProfilePic
	}
	return AuthResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.accessTTL.Seconds()),
		User:        info,
	}, nil
}

func (s *AuthService) ParseAccessToken(tokenString string) (AccessClaims, error) {
	if tokenString == "" {
		return AccessClaims{}, chat_errors.ErrUnauthorized
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, chat_errors.ErrUnauthorized
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return AccessClaims{}, chat_errors.ErrUnauthorized
	}

	claims, ok := parsed.Claims.(*AccessClaims)
	if !ok || !parsed.Valid {
		return AccessClaims{}, chat_errors.ErrUnauthorized
	}

	return *claims, nil
}

// HTTPStatus maps service errors to response codes.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, chat_errors.ErrInvalidInput),
		errors.Is(err, chat_errors.ErrInvalidIdentity),
		errors.Is(err, chat_errors.ErrSelfConversation),
		errors.Is(err, chat_errors.ErrEmptyMessage),
		errors.Is(err, chat_errors.ErrNoConversation):
		return http.StatusBadRequest
	case errors.Is(err, chat_errors.ErrUnauthorized), errors.Is(err, chat_errors.ErrSessionClosed):
		return http.StatusUnauthorized
	case errors.Is(err, chat_errors.ErrBlocked), errors.Is(err, chat_errors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, chat_errors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, chat_errors.ErrAlreadyExists), errors.Is(err, chat_errors.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, chat_errors.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
