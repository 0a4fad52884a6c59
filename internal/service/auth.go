package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/sepehr-data/mithra-pay/pkg/apperr"
	"github.com/sepehr-data/mithra-pay/pkg/auth"
	"github.com/sepehr-data/mithra-pay/pkg/models"
)

// AuthService registers users and signs them in by password or one-time code.
type AuthService struct {
	users     UserRepository
	otp       OTPStore
	sms       SMSSender
	tokens    *auth.TokenIssuer
	otpLength int
	log       *slog.Logger
	now       func() time.Time
}

func NewAuthService(users UserRepository, otp OTPStore, sms SMSSender, tokens *auth.TokenIssuer, otpLength int, log *slog.Logger) *AuthService {
	return &AuthService{
		users:     users,
		otp:       otp,
		sms:       sms,
		tokens:    tokens,
		otpLength: otpLength,
		log:       log.With("component", "auth"),
		now:       time.Now,
	}
}

// Session is a signed-in user with its access token.
type Session struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        *models.User `json:"user"`
}

func (s *AuthService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	phone := normalizePhone(req.Phone)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := s.users.GetByPhone(ctx, phone); err == nil {
		return nil, apperr.Conflict("phone already registered")
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("lookup phone: %w", err)
	}
	if email != "" {
		if _, err := s.users.GetByEmail(ctx, email); err == nil {
			return nil, apperr.Conflict("email already registered")
		} else if !errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("lookup email: %w", err)
		}
	}

	now := s.now()
	user := &models.User{
		Phone:     phone,
		Email:     email,
		FullName:  strings.TrimSpace(req.FullName),
		IsActive:  true,
		Roles:     []string{models.RoleCustomer},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, models.ErrDuplicateKey) {
			return nil, apperr.Conflict("phone or email already registered")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.log.InfoContext(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// Login checks a password. Accounts created through OTP have no password and
// must keep using OTP.
func (s *AuthService) Login(ctx context.Context, phone, password string) (*Session, error) {
	user, err := s.users.GetByPhone(ctx, normalizePhone(phone))
	if errors.Is(err, models.ErrNotFound) {
		return nil, apperr.Unauthorized("invalid phone or password")
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user.PasswordHash == "" {
		return nil, apperr.Unauthorized("password login is disabled for this account").WithCode("password_login_disabled")
	}
	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		return nil, apperr.Unauthorized("invalid phone or password")
	}
	if !user.IsActive {
		return nil, apperr.Forbidden("account is disabled")
	}
	return s.session(user)
}

// SendOTP generates and stores a code for phone and hands it to the SMS
// sender. The code is returned so non-production builds can echo it.
func (s *AuthService) SendOTP(ctx context.Context, phone string) (string, error) {
	phone = normalizePhone(phone)
	if phone == "" {
		return "", apperr.Validation("phone is required")
	}
	code, err := generateCode(s.otpLength)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	if err := s.otp.Save(ctx, phone, code); err != nil {
		return "", fmt.Errorf("store otp: %w", err)
	}
	if err := s.sms.SendOTP(ctx, phone, code); err != nil {
		return "", fmt.Errorf("send otp: %w", err)
	}
	return code, nil
}

// VerifyOTP consumes a valid code, creating the account on first sign in.
func (s *AuthService) VerifyOTP(ctx context.Context, phone, code string) (*Session, error) {
	phone = normalizePhone(phone)
	ok, err := s.otp.Verify(ctx, phone, strings.TrimSpace(code))
	if errors.Is(err, models.ErrTooManyAttempts) {
		return nil, apperr.Unauthorized("too many attempts, request a new code").WithCode("otp_locked")
	}
	if err != nil {
		return nil, fmt.Errorf("verify otp: %w", err)
	}
	if !ok {
		return nil, apperr.Unauthorized("invalid or expired otp")
	}

	user, err := s.ensureUser(ctx, phone)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, apperr.Forbidden("account is disabled")
	}
	if !user.IsPhoneVerified {
		user.IsPhoneVerified = true
		user.UpdatedAt = s.now()
		if err := s.users.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("mark phone verified: %w", err)
		}
	}
	return s.session(user)
}

// Me returns the signed-in user.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, apperr.NotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// GrantRole adds role to a user.
func (s *AuthService) GrantRole(ctx context.Context, userID, role string) error {
	if _, err := s.Me(ctx, userID); err != nil {
		return err
	}
	if err := s.users.AddRole(ctx, userID, role); err != nil {
		return fmt.Errorf("add role: %w", err)
	}
	return nil
}

func (s *AuthService) ensureUser(ctx context.Context, phone string) (*models.User, error) {
	user, err := s.users.GetByPhone(ctx, phone)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	now := s.now()
	user = &models.User{
		Phone:     phone,
		IsActive:  true,
		Roles:     []string{models.RoleCustomer},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, models.ErrDuplicateKey) {
			return s.users.GetByPhone(ctx, phone)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.log.InfoContext(ctx, "user created from otp", "user_id", user.ID)
	return user, nil
}

func (s *AuthService) session(user *models.User) (*Session, error) {
	token, err := s.tokens.Issue(auth.Subject{
		UserID:          user.ID,
		Phone:           user.Phone,
		IsPhoneVerified: user.IsPhoneVerified,
		Roles:           user.Roles,
	})
	if err != nil {
		return nil, err
	}
	return &Session{AccessToken: token, TokenType: "bearer", User: user}, nil
}

func normalizePhone(phone string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(phone))
}

func generateCode(length int) (string, error) {
	var b strings.Builder
	ten := big.NewInt(10)
	for i := 0; i < length; i++ {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + d.Int64()))
	}
	return b.String(), nil
}
