package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/finlens/ledgersync/internal/models"
	"github.com/finlens/ledgersync/internal/repositories"
	"github.com/finlens/ledgersync/internal/utils"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
)

// Mailer delivers the password reset link. Transport is an external
// collaborator; the service only hands over the token.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, token string) error
}

// LogMailer writes the reset token to the process log instead of
// sending mail. Stand-in for environments without an email provider.
type LogMailer struct{}

func (LogMailer) SendPasswordReset(ctx context.Context, email, token string) error {
	log.Printf("password reset requested for %s: token %s", email, token)
	return nil
}

type AuthService struct {
	userRepo    repositories.UserRepository
	companyRepo repositories.CompanyRepository
	sessionRepo repositories.SessionRepository
	mailer      Mailer
	jwtSecret   string
	jwtExpiry   time.Duration
}

type SignupRequest struct {
	CompanyName string
	Email       string
	Password    string
}

type LoginResponse struct {
	Token     string
	ExpiresAt time.Time
	UserID    uuid.UUID
	CompanyID uuid.UUID
}

type TokenClaims struct {
	UserID    uuid.UUID
	CompanyID uuid.UUID
	SessionID string
}

func NewAuthService(
	userRepo repositories.UserRepository,
	companyRepo repositories.CompanyRepository,
	sessionRepo repositories.SessionRepository,
	mailer Mailer,
	jwtSecret string,
	jwtExpiry time.Duration,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		companyRepo: companyRepo,
		sessionRepo: sessionRepo,
		mailer:      mailer,
		jwtSecret:   jwtSecret,
		jwtExpiry:   jwtExpiry,
	}
}

// Signup provisions the user and its company in one step and logs the
// new user in.
func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (*LoginResponse, error) {
	existing, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err == nil && existing != nil {
		return nil, ErrEmailExists
	}
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: hashedPassword,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	company := &models.Company{
		UserID: user.ID,
		Name:   req.CompanyName,
		Email:  req.Email,
	}
	if err := s.companyRepo.Create(ctx, company); err != nil {
		return nil, fmt.Errorf("failed to create company: %w", err)
	}

	return s.startSession(ctx, user, company)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !utils.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	company, err := s.companyRepo.GetByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get company: %w", err)
	}

	return s.startSession(ctx, user, company)
}

func (s *AuthService) startSession(ctx context.Context, user *models.User, company *models.Company) (*LoginResponse, error) {
	sessionID := uuid.New().String()
	expiresAt := time.Now().Add(s.jwtExpiry)
	session := &models.Session{
		ID:        sessionID,
		UserID:    user.ID,
		CompanyID: company.ID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	token, err := s.generateToken(user.ID, company.ID, sessionID, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		UserID:    user.ID,
		CompanyID: company.ID,
	}, nil
}

func (s *AuthService) generateToken(userID, companyID uuid.UUID, sessionID string, expiresAt time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":        userID.String(),
		"company_id": companyID.String(),
		"jti":        sessionID,
		"exp":        expiresAt.Unix(),
		"iat":        time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

func (s *AuthService) VerifyToken(tokenString string) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	userIDStr, ok := claims["sub"].(string)
	if !ok {
		return nil, ErrInvalidToken
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, ErrInvalidToken
	}

	companyIDStr, ok := claims["company_id"].(string)
	if !ok {
		return nil, ErrInvalidToken
	}
	companyID, err := uuid.Parse(companyIDStr)
	if err != nil {
		return nil, ErrInvalidToken
	}

	sessionID, ok := claims["jti"].(string)
	if !ok {
		return nil, ErrInvalidToken
	}

	return &TokenClaims{
		UserID:    userID,
		CompanyID: companyID,
		SessionID: sessionID,
	}, nil
}

// Authenticate validates a bearer token for request handling: the JWT
// must verify and its session must still exist in the store. A token
// whose session was revoked by logout is rejected even before its exp.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*TokenClaims, error) {
	claims, err := s.VerifyToken(tokenString)
	if err != nil {
		return nil, err
	}

	_, err = s.sessionRepo.GetByID(ctx, claims.SessionID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}
	return claims, nil
}

func (s *AuthService) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.VerifyToken(tokenString)
	if err != nil {
		return err
	}

	if err := s.sessionRepo.Delete(ctx, claims.SessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *AuthService) LogoutAll(ctx context.Context, tokenString string) error {
	claims, err := s.VerifyToken(tokenString)
	if err != nil {
		return err
	}

	if err := s.sessionRepo.DeleteAllForUser(ctx, claims.UserID); err != nil {
		return fmt.Errorf("failed to logout all sessions: %w", err)
	}
	return nil
}

// RequestPasswordReset stores an opaque reset token on the user row and
// hands it to the mailer. An unknown email is reported as success so the
// endpoint does not leak which addresses exist.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}
	token := hex.EncodeToString(buf)

	if err := s.userRepo.SetResetToken(ctx, user.ID, token); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	return s.mailer.SendPasswordReset(ctx, email, token)
}

func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return ErrInvalidResetToken
	}

	user, err := s.userRepo.GetByResetToken(ctx, token)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrInvalidResetToken
	}
	if err != nil {
		return fmt.Errorf("failed to look up reset token: %w", err)
	}

	hashedPassword, err := utils.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, user.ID, hashedPassword); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	// Existing sessions stay valid; only the reset token is consumed.
	return nil
}
