package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sepehr-data/mithra-pay/internal/service"
	"github.com/sepehr-data/mithra-pay/pkg/apperr"
	"github.com/sepehr-data/mithra-pay/pkg/auth"
	"github.com/sepehr-data/mithra-pay/pkg/logger"
	"github.com/sepehr-data/mithra-pay/pkg/models"
	"github.com/sepehr-data/mithra-pay/pkg/redis"
)

// capturingSMS remembers the last code sent to each phone.
type capturingSMS struct {
	mu    sync.Mutex
	codes map[string]string
}

func (c *capturingSMS) SendOTP(_ context.Context, phone, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.codes == nil {
		c.codes = map[string]string{}
	}
	c.codes[phone] = code
	return nil
}

func (c *capturingSMS) last(phone string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.codes[phone]
}

type authFixture struct {
	svc    *service.AuthService
	sms    *capturingSMS
	tokens *auth.TokenIssuer
	stores *stores
}

func newAuthFixture(t *testing.T) *authFixture {
	s := newStores(t)
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	sms := &capturingSMS{}
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	otp := redis.NewOTPStore(client, 2*time.Minute, 3)
	return &authFixture{
		svc:    service.NewAuthService(s.users, otp, sms, tokens, 6, logger.Discard()),
		sms:    sms,
		tokens: tokens,
		stores: s,
	}
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	user, err := f.svc.Register(ctx, &models.RegisterRequest{
		Phone:    "0912 123-4567",
		Email:    "Buyer@Example.com",
		FullName: "Buyer",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	assert.Equal(t, "09121234567", user.Phone)
	assert.Equal(t, "buyer@example.com", user.Email)
	assert.Equal(t, []string{models.RoleCustomer}, user.Roles)

	_, err = f.svc.Register(ctx, &models.RegisterRequest{Phone: "09121234567"})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = f.svc.Register(ctx, &models.RegisterRequest{Phone: "09120000000", Email: "buyer@example.com"})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	session, err := f.svc.Login(ctx, "09121234567", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, "bearer", session.TokenType)

	claims, err := f.tokens.Parse(session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.Subject)

	_, err = f.svc.Login(ctx, "09121234567", "wrong-pass")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = f.svc.Login(ctx, "09999999999", "whatever")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestAuthService_PasswordlessAccountCannotLogin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, &models.RegisterRequest{Phone: "09121111111"})
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, "09121111111", "anything")
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.Equal(t, "password_login_disabled", apperr.CodeOf(err))
}

func TestAuthService_OTPCreatesVerifiedUser(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	code, err := f.svc.SendOTP(ctx, "09122222222")
	require.NoError(t, err)
	assert.Len(t, code, 6)
	assert.Equal(t, code, f.sms.last("09122222222"))

	session, err := f.svc.VerifyOTP(ctx, "09122222222", code)
	require.NoError(t, err)
	assert.True(t, session.User.IsPhoneVerified)

	stored, err := f.stores.users.GetByPhone(ctx, "09122222222")
	require.NoError(t, err)
	assert.True(t, stored.IsPhoneVerified)

	_, err = f.svc.VerifyOTP(ctx, "09122222222", code)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized, "a code cannot be reused")
}

func TestAuthService_OTPLocksAfterFailedAttempts(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	code, err := f.svc.SendOTP(ctx, "09123333333")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := f.svc.VerifyOTP(ctx, "09123333333", "000000x")
		require.ErrorIs(t, err, apperr.ErrUnauthorized)
	}

	_, err = f.svc.VerifyOTP(ctx, "09123333333", code)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.Equal(t, "otp_locked", apperr.CodeOf(err))
}

func TestAuthService_MeAndGrantRole(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	user, err := f.svc.Register(ctx, &models.RegisterRequest{Phone: "09124444444"})
	require.NoError(t, err)

	require.NoError(t, f.svc.GrantRole(ctx, user.ID, models.RoleAdmin))
	me, err := f.svc.Me(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, me.HasRole(models.RoleAdmin))

	_, err = f.svc.Me(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, f.svc.GrantRole(ctx, "missing", models.RoleAdmin), apperr.ErrNotFound)
}
