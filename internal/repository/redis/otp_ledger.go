package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"jobportal/internal/client"
	"jobportal/internal/config"
	"jobportal/internal/model"
	"jobportal/internal/util"
)

const (
	otpPrefix         = "otp:"
	otpCooldownPrefix = "otp_cooldown:"
	otpAttemptPrefix  = "otp_attempts:"
)

// OtpLedger keeps at most one live code per (flow, email). Records carry
// their own expires_at and are also given a Redis TTL slightly past it, so
// stale rows vanish on their own even though expiry checks never rely on
// that.
type OtpLedger struct {
	client *client.RedisClient
	config *config.OTPConfig
}

func NewOtpLedger(c *client.RedisClient, cfg *config.OTPConfig) *OtpLedger {
	return &OtpLedger{client: c, config: cfg}
}

func otpKey(flow model.OtpFlow, email string) string {
	return otpPrefix + string(flow) + ":" + email
}

func (l *OtpLedger) Upsert(ctx context.Context, flow model.OtpFlow, rec *model.OtpRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal otp record: %w", err)
	}

	// Keep the key a minute past logical expiry; Expired() is the
	// authority, the TTL is garbage collection.
	ttl := time.Until(rec.ExpiresAt) + time.Minute
	key := otpKey(flow, rec.Email)
	if err := l.client.Set(ctx, key, payload, ttl); err != nil {
		util.Error("failed to store otp record",
			zap.String("flow", string(flow)),
			zap.Error(err))
		return fmt.Errorf("failed to store otp record: %w", err)
	}

	util.Debug("otp record stored",
		zap.String("flow", string(flow)),
		zap.Duration("ttl", ttl))
	return nil
}

func (l *OtpLedger) Find(ctx context.Context, flow model.OtpFlow, email string) (*model.OtpRecord, error) {
	raw, err := l.client.Get(ctx, otpKey(flow, email))
	if err != nil {
		if errors.Is(err, client.ErrKeyNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read otp record: %w", err)
	}

	rec := &model.OtpRecord{}
	if err := json.Unmarshal([]byte(raw), rec); err != nil {
		return nil, fmt.Errorf("decode otp record: %w", err)
	}
	return rec, nil
}

func (l *OtpLedger) Delete(ctx context.Context, flow model.OtpFlow, email string) error {
	if err := l.client.Del(ctx, otpKey(flow, email)); err != nil {
		return fmt.Errorf("failed to delete otp record: %w", err)
	}
	return nil
}

func (l *OtpLedger) SetCooldown(ctx context.Context, flow model.OtpFlow, email string) error {
	key := otpCooldownPrefix + string(flow) + ":" + email
	if err := l.client.Set(ctx, key, "1", l.config.CooldownTTL); err != nil {
		return fmt.Errorf("failed to set otp cooldown: %w", err)
	}
	return nil
}

func (l *OtpLedger) InCooldown(ctx context.Context, flow model.OtpFlow, email string) (bool, error) {
	key := otpCooldownPrefix + string(flow) + ":" + email
	exists, err := l.client.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to check otp cooldown: %w", err)
	}
	return exists, nil
}

func (l *OtpLedger) IncrementAttempts(ctx context.Context, flow model.OtpFlow, email string) (int, error) {
	key := otpAttemptPrefix + string(flow) + ":" + email
	count, err := l.client.IncrWithExpire(ctx, key, l.config.AttemptWindow)
	if err != nil {
		return 0, fmt.Errorf("failed to increment otp attempts: %w", err)
	}
	return int(count), nil
}

func (l *OtpLedger) ResetAttempts(ctx context.Context, flow model.OtpFlow, email string) error {
	key := otpAttemptPrefix + string(flow) + ":" + email
	if err := l.client.Del(ctx, key); err != nil {
		return fmt.Errorf("failed to reset otp attempts: %w", err)
	}
	return nil
}
