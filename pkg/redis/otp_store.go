package redis

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sepehr-data/mithra-pay/pkg/models"
)

// OTPStore keeps one pending code per phone with a bounded number of
// verification attempts.
type OTPStore struct {
	client      *redis.Client
	ttl         time.Duration
	maxAttempts int
}

func NewOTPStore(client *redis.Client, ttl time.Duration, maxAttempts int) *OTPStore {
	return &OTPStore{client: client, ttl: ttl, maxAttempts: maxAttempts}
}

func otpKey(phone string) string      { return fmt.Sprintf("otp:%s", phone) }
func attemptsKey(phone string) string { return fmt.Sprintf("otp:%s:attempts", phone) }

// Save replaces any pending code and resets the attempt counter.
func (s *OTPStore) Save(ctx context.Context, phone, code string) error {
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, otpKey(phone), code, s.ttl)
	pipe.Del(ctx, attemptsKey(phone))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}
	return nil
}

func (s *OTPStore) Verify(ctx context.Context, phone, code string) (bool, error) {
	stored, err := s.client.Get(ctx, otpKey(phone)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read otp: %w", err)
	}

	attempts, err := s.client.Get(ctx, attemptsKey(phone)).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("failed to read otp attempts: %w", err)
	}
	if s.maxAttempts > 0 && attempts >= s.maxAttempts {
		return false, models.ErrTooManyAttempts
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) == 1 {
		if err := s.client.Del(ctx, otpKey(phone), attemptsKey(phone)).Err(); err != nil {
			return false, fmt.Errorf("failed to consume otp: %w", err)
		}
		return true, nil
	}

	pipe := s.client.TxPipeline()
	pipe.Incr(ctx, attemptsKey(phone))
	pipe.Expire(ctx, attemptsKey(phone), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to count otp attempt: %w", err)
	}
	return false, nil
}
