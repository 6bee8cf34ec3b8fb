package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"jobportal/internal/analytics"
	"jobportal/internal/config"
	"jobportal/internal/encryption"
	"jobportal/internal/hashing"
	"jobportal/internal/mailer"
	"jobportal/internal/model"
	"jobportal/internal/util"
)

// SignupRequest carries the full signup payload. The same payload is
// re-submitted at verification time; nothing is provisioned until the code
// matches.
type SignupRequest struct {
	Role     model.Role
	Username string
	Email    string
	Password string
	Phone    string
	Category string
	Profile  map[string]string
}

// ProvisioningService owns OTP-gated account creation, password reset, and
// login. Every OTP failure mode collapses into ErrInvalidOtp so a caller
// cannot probe which emails are registered or which codes were close.
type ProvisioningService struct {
	accounts  model.AccountRepository
	ledger    model.OtpLedger
	mailer    model.Mailer
	hasher    *hashing.Hasher
	crypto    *encryption.Manager
	recorder  *analytics.Recorder
	otpConfig *config.OTPConfig
	now       func() time.Time
}

func NewProvisioningService(
	accounts model.AccountRepository,
	ledger model.OtpLedger,
	m model.Mailer,
	hasher *hashing.Hasher,
	crypto *encryption.Manager,
	recorder *analytics.Recorder,
	otpConfig *config.OTPConfig,
) *ProvisioningService {
	return &ProvisioningService{
		accounts:  accounts,
		ledger:    ledger,
		mailer:    m,
		hasher:    hasher,
		crypto:    crypto,
		recorder:  recorder,
		otpConfig: otpConfig,
		now:       time.Now,
	}
}

func (s *ProvisioningService) validateSignup(req *SignupRequest) error {
	if !req.Role.Valid() {
		return fmt.Errorf("%w: unknown role", ErrValidation)
	}
	if err := ValidateUsername(req.Username); err != nil {
		return err
	}
	if err := ValidateEmail(req.Email); err != nil {
		return err
	}
	if err := ValidatePassword(req.Password); err != nil {
		return err
	}
	if req.Phone == "" {
		return fmt.Errorf("%w: phone is required", ErrValidation)
	}
	return nil
}

// RequestSignupOtp validates the payload, rejects conflicting identities
// before anything is sent, then issues a fresh code. A repeated request
// overwrites the previous code.
func (s *ProvisioningService) RequestSignupOtp(ctx context.Context, req *SignupRequest) error {
	if err := s.validateSignup(req); err != nil {
		return err
	}

	// Both uniqueness checks run before the mail goes out. Username is
	// checked first.
	if _, err := s.accounts.GetByUsername(ctx, req.Role, req.Username); err == nil {
		return fmt.Errorf("%w: username", ErrConflict)
	} else if !errors.Is(err, model.ErrNotFound) {
		return err
	}
	if _, err := s.accounts.GetByEmail(ctx, req.Role, req.Email); err == nil {
		return fmt.Errorf("%w: email", ErrConflict)
	} else if !errors.Is(err, model.ErrNotFound) {
		return err
	}

	return s.issueOtp(ctx, model.OtpFlowSignup, req.Email)
}

func (s *ProvisioningService) issueOtp(ctx context.Context, flow model.OtpFlow, email string) error {
	inCooldown, err := s.ledger.InCooldown(ctx, flow, email)
	if err != nil {
		util.Warn("otp cooldown check failed", zap.Error(err))
	} else if inCooldown {
		return fmt.Errorf("%w: a code was sent recently", ErrTooManyRequests)
	}

	code, err := hashing.GenerateNumericCode(s.otpConfig.Length)
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}

	rec := &model.OtpRecord{
		Email:     email,
		Code:      code,
		ExpiresAt: s.now().UTC().Add(s.otpConfig.Expiry),
	}
	if err := s.ledger.Upsert(ctx, flow, rec); err != nil {
		return err
	}

	text, html := mailer.OtpBodies(code, int(s.otpConfig.Expiry.Minutes()))
	if err := s.mailer.Send(ctx, email, mailer.OtpSubject(), text, html); err != nil {
		util.Error("otp mail send failed",
			zap.String("flow", string(flow)),
			zap.Error(err))
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	if err := s.ledger.SetCooldown(ctx, flow, email); err != nil {
		util.Warn("otp cooldown set failed", zap.Error(err))
	}
	if err := s.ledger.ResetAttempts(ctx, flow, email); err != nil {
		util.Warn("otp attempt reset failed", zap.Error(err))
	}

	util.Info("otp issued", zap.String("flow", string(flow)))
	return nil
}

// matchOtp checks the live record against the supplied code. Missing record,
// expired record, and wrong code are indistinguishable; the record is only
// retired by consumeOtp once the gated operation has succeeded, so a failure
// downstream (say a uniqueness conflict) does not burn a still-valid code.
func (s *ProvisioningService) matchOtp(ctx context.Context, flow model.OtpFlow, email, code string) error {
	attempts, err := s.ledger.IncrementAttempts(ctx, flow, email)
	if err != nil {
		util.Warn("otp attempt count failed", zap.Error(err))
	} else if attempts > s.otpConfig.MaxVerifyTries {
		return fmt.Errorf("%w: verification attempts exhausted", ErrTooManyRequests)
	}

	rec, err := s.ledger.Find(ctx, flow, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return ErrInvalidOtp
		}
		return err
	}
	if rec.Expired(s.now().UTC()) || rec.Code != code {
		return ErrInvalidOtp
	}
	return nil
}

func (s *ProvisioningService) consumeOtp(ctx context.Context, flow model.OtpFlow, email string) {
	if err := s.ledger.Delete(ctx, flow, email); err != nil {
		util.Warn("otp record delete failed",
			zap.String("flow", string(flow)),
			zap.Error(err))
	}
	if err := s.ledger.ResetAttempts(ctx, flow, email); err != nil {
		util.Warn("otp attempt reset failed", zap.Error(err))
	}
}

// VerifySignupOtp matches the code and provisions the account. The password
// is bcrypt-hashed and the phone number envelope-encrypted before either
// touches the credential store.
func (s *ProvisioningService) VerifySignupOtp(ctx context.Context, req *SignupRequest, code string) (*model.Account, error) {
	if err := s.validateSignup(req); err != nil {
		return nil, err
	}
	if code == "" {
		return nil, ErrInvalidOtp
	}

	if err := s.matchOtp(ctx, model.OtpFlowSignup, req.Email, code); err != nil {
		return nil, err
	}

	hash, err := s.hasher.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	enc, err := s.crypto.EncryptField(ctx, req.Phone)
	if err != nil {
		return nil, fmt.Errorf("encrypt phone: %w", err)
	}

	acct := &model.Account{
		Role:         req.Role,
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		PhoneEnc:     enc.Value,
		PhoneDEK:     enc.DEK,
		PhoneKeyID:   enc.KeyID,
		Category:     req.Category,
		Profile:      req.Profile,
	}
	if err := s.accounts.Create(ctx, acct); err != nil {
		if errors.Is(err, model.ErrUsernameTaken) {
			return nil, fmt.Errorf("%w: username", ErrConflict)
		}
		if errors.Is(err, model.ErrEmailTaken) {
			return nil, fmt.Errorf("%w: email", ErrConflict)
		}
		return nil, err
	}
	s.consumeOtp(ctx, model.OtpFlowSignup, req.Email)

	text, html := mailer.WelcomeBodies(acct.Username)
	if err := s.mailer.Send(ctx, acct.Email, mailer.WelcomeSubject(), text, html); err != nil {
		util.Warn("welcome mail send failed",
			zap.String("account_id", acct.AccountID),
			zap.Error(err))
	}

	s.recorder.Record(ctx, analytics.EventSignupVerified, string(acct.Role), acct.AccountID)
	return acct, nil
}

// RequestPasswordResetOtp issues a reset code. Unlike signup, the account
// must already exist.
func (s *ProvisioningService) RequestPasswordResetOtp(ctx context.Context, role model.Role, email string) error {
	if !role.Valid() {
		return fmt.Errorf("%w: unknown role", ErrValidation)
	}
	if err := ValidateEmail(email); err != nil {
		return err
	}

	if _, err := s.accounts.GetByEmail(ctx, role, email); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return fmt.Errorf("%w: no account for that email", ErrNotFound)
		}
		return err
	}

	return s.issueOtp(ctx, model.OtpFlowReset, email)
}

// ResetPassword matches a reset code and overwrites the stored hash. The
// previous password is not required.
func (s *ProvisioningService) ResetPassword(ctx context.Context, role model.Role, email, code, newPassword string) error {
	if !role.Valid() {
		return fmt.Errorf("%w: unknown role", ErrValidation)
	}
	if err := ValidateEmail(email); err != nil {
		return err
	}
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}
	if code == "" {
		return ErrInvalidOtp
	}

	acct, err := s.accounts.GetByEmail(ctx, role, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return fmt.Errorf("%w: no account for that email", ErrNotFound)
		}
		return err
	}

	if err := s.matchOtp(ctx, model.OtpFlowReset, email, code); err != nil {
		return err
	}

	hash, err := s.hasher.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.accounts.UpdatePasswordHash(ctx, acct, hash); err != nil {
		return err
	}
	s.consumeOtp(ctx, model.OtpFlowReset, email)

	s.recorder.Record(ctx, analytics.EventPasswordReset, string(role), acct.AccountID)
	util.Info("password reset", zap.String("account_id", acct.AccountID))
	return nil
}

// Login verifies credentials. Candidates and employers sign in by username
// (an identity containing "@" is treated as an email); admins sign in by
// case-insensitive email. An unknown identity is ErrNotFound, a wrong
// password ErrAuth — unlike the OTP path, the two are distinguishable.
func (s *ProvisioningService) Login(ctx context.Context, role model.Role, identity, password string) (*model.Account, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role", ErrValidation)
	}
	if identity == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrValidation)
	}

	var acct *model.Account
	var err error
	if role == model.RoleAdmin || strings.Contains(identity, "@") {
		acct, err = s.accounts.GetByEmail(ctx, role, util.NormalizeEmail(identity))
	} else {
		acct, err = s.accounts.GetByUsername(ctx, role, identity)
	}
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("%w: account", ErrNotFound)
		}
		return nil, err
	}

	if err := s.hasher.ComparePassword(acct.PasswordHash, password); err != nil {
		if errors.Is(err, hashing.ErrMismatch) {
			return nil, fmt.Errorf("%w: incorrect password", ErrAuth)
		}
		return nil, err
	}

	s.recorder.Record(ctx, analytics.EventLogin, string(role), acct.AccountID)
	return acct, nil
}
