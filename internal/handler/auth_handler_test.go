package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobportal/internal/config"
	"jobportal/internal/encryption"
	"jobportal/internal/hashing"
	"jobportal/internal/model"
	"jobportal/internal/service"
)

// memAccounts implements only the repository methods the signup and login
// flows reach; the embedded interface panics on anything else.
type memAccounts struct {
	model.AccountRepository
	accounts []*model.Account
	nextID   int
}

func (m *memAccounts) Create(ctx context.Context, acct *model.Account) error {
	for _, a := range m.accounts {
		if a.Role != acct.Role {
			continue
		}
		if a.Username == acct.Username {
			return model.ErrUsernameTaken
		}
		if a.Email == acct.Email {
			return model.ErrEmailTaken
		}
	}
	m.nextID++
	acct.AccountID = fmt.Sprintf("acct-%d", m.nextID)
	m.accounts = append(m.accounts, acct)
	return nil
}

func (m *memAccounts) GetByUsername(ctx context.Context, role model.Role, username string) (*model.Account, error) {
	for _, a := range m.accounts {
		if a.Role == role && a.Username == username {
			return a, nil
		}
	}
	return nil, model.ErrNotFound
}

func (m *memAccounts) GetByEmail(ctx context.Context, role model.Role, email string) (*model.Account, error) {
	for _, a := range m.accounts {
		if a.Role == role && a.Email == email {
			return a, nil
		}
	}
	return nil, model.ErrNotFound
}

type memLedger struct {
	records  map[string]*model.OtpRecord
	cooldown map[string]bool
	attempts map[string]int
}

func newMemLedger() *memLedger {
	return &memLedger{
		records:  make(map[string]*model.OtpRecord),
		cooldown: make(map[string]bool),
		attempts: make(map[string]int),
	}
}

func ledgerKey(flow model.OtpFlow, email string) string {
	return string(flow) + "/" + email
}

func (l *memLedger) Upsert(ctx context.Context, flow model.OtpFlow, rec *model.OtpRecord) error {
	l.records[ledgerKey(flow, rec.Email)] = rec
	return nil
}

func (l *memLedger) Find(ctx context.Context, flow model.OtpFlow, email string) (*model.OtpRecord, error) {
	if rec, ok := l.records[ledgerKey(flow, email)]; ok {
		return rec, nil
	}
	return nil, model.ErrNotFound
}

func (l *memLedger) Delete(ctx context.Context, flow model.OtpFlow, email string) error {
	delete(l.records, ledgerKey(flow, email))
	return nil
}

func (l *memLedger) SetCooldown(ctx context.Context, flow model.OtpFlow, email string) error {
	l.cooldown[ledgerKey(flow, email)] = true
	return nil
}

func (l *memLedger) InCooldown(ctx context.Context, flow model.OtpFlow, email string) (bool, error) {
	return l.cooldown[ledgerKey(flow, email)], nil
}

func (l *memLedger) IncrementAttempts(ctx context.Context, flow model.OtpFlow, email string) (int, error) {
	l.attempts[ledgerKey(flow, email)]++
	return l.attempts[ledgerKey(flow, email)], nil
}

func (l *memLedger) ResetAttempts(ctx context.Context, flow model.OtpFlow, email string) error {
	delete(l.attempts, ledgerKey(flow, email))
	return nil
}

type memMailer struct {
	sent int
}

func (m *memMailer) Send(ctx context.Context, to, subject, textBody, htmlBody string) error {
	m.sent++
	return nil
}

type authHarness struct {
	router *chi.Mux
	ledger *memLedger
	mailer *memMailer
}

func newAuthHarness(t *testing.T) *authHarness {
	t.Helper()
	ledger := newMemLedger()
	mailer := &memMailer{}
	provisioning := service.NewProvisioningService(
		&memAccounts{},
		ledger,
		mailer,
		hashing.NewHasher(),
		encryption.NewManager(&config.Config{}, nil),
		nil,
		&config.OTPConfig{Length: 6, Expiry: 10 * time.Minute, CooldownTTL: 5 * time.Minute, MaxVerifyTries: 5},
	)

	serverCfg := &config.ServerConfig{Domain: "", CookieMaxAge: 7 * 24 * time.Hour}
	router := chi.NewRouter()
	NewAuthHandler(provisioning, NewCookieWriter(serverCfg)).RegisterRoutes(router)
	return &authHarness{router: router, ledger: ledger, mailer: mailer}
}

func (h *authHarness) post(t *testing.T, path string, body map[string]interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func signupPayload() map[string]interface{} {
	return map[string]interface{}{
		"username": "ravi",
		"email":    "Ravi@Example.com",
		"password": "Sup3r#pass",
		"phone":    "+919812345678",
		"category": "Engineering",
	}
}

func TestSignupFlow_SetsRoleCookie(t *testing.T) {
	h := newAuthHarness(t)

	rec := h.post(t, "/candidate-signup", signupPayload())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, 1, h.mailer.sent)

	// The handler normalizes the email before it reaches the ledger.
	stored, err := h.ledger.Find(context.Background(), model.OtpFlowSignup, "ravi@example.com")
	require.NoError(t, err)

	payload := signupPayload()
	payload["otp"] = stored.Code
	rec = h.post(t, "/verify-candidate-otp", payload)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decodeEnvelope(t, rec)
	assert.True(t, resp.Success)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "candidateId", cookies[0].Name)
	assert.NotEmpty(t, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
}

func TestVerifyOtp_WrongCodeIsBadRequest(t *testing.T) {
	h := newAuthHarness(t)

	rec := h.post(t, "/candidate-signup", signupPayload())
	require.Equal(t, http.StatusOK, rec.Code)

	payload := signupPayload()
	payload["otp"] = "000000"
	stored, err := h.ledger.Find(context.Background(), model.OtpFlowSignup, "ravi@example.com")
	require.NoError(t, err)
	if stored.Code == "000000" {
		t.Skip("generated code collides with the deliberately wrong one")
	}

	rec = h.post(t, "/verify-candidate-otp", payload)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, decodeEnvelope(t, rec).Success)
}

func TestSignup_DuplicateUsernameIsConflict(t *testing.T) {
	h := newAuthHarness(t)

	rec := h.post(t, "/candidate-signup", signupPayload())
	require.Equal(t, http.StatusOK, rec.Code)
	stored, err := h.ledger.Find(context.Background(), model.OtpFlowSignup, "ravi@example.com")
	require.NoError(t, err)

	payload := signupPayload()
	payload["otp"] = stored.Code
	rec = h.post(t, "/verify-candidate-otp", payload)
	require.Equal(t, http.StatusCreated, rec.Code)

	// Same username, fresh email.
	payload = signupPayload()
	payload["email"] = "other@example.com"
	rec = h.post(t, "/candidate-signup", payload)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLogin_SetsCookieAndRejectsBadPassword(t *testing.T) {
	h := newAuthHarness(t)

	rec := h.post(t, "/candidate-signup", signupPayload())
	require.Equal(t, http.StatusOK, rec.Code)
	stored, err := h.ledger.Find(context.Background(), model.OtpFlowSignup, "ravi@example.com")
	require.NoError(t, err)

	payload := signupPayload()
	payload["otp"] = stored.Code
	rec = h.post(t, "/verify-candidate-otp", payload)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = h.post(t, "/candidate-login", map[string]interface{}{
		"username": "ravi",
		"password": "Sup3r#pass",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, rec.Result().Cookies(), 1)

	rec = h.post(t, "/candidate-login", map[string]interface{}{
		"email":    "ravi@example.com",
		"password": "Sup3r#pass",
	})
	require.Equal(t, http.StatusOK, rec.Code, "email is accepted in place of the username")

	rec = h.post(t, "/candidate-login", map[string]interface{}{
		"username": "ravi",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.post(t, "/candidate-login", map[string]interface{}{
		"username": "ghost",
		"password": "Sup3r#pass",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLogout_ClearsPresentRoleCookies(t *testing.T) {
	h := newAuthHarness(t)

	rec := h.post(t, "/logout", map[string]interface{}{},
		&http.Cookie{Name: "candidateId", Value: "acct-1"})
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "candidateId", cookies[0].Name)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestRequestSignupOtp_MalformedBody(t *testing.T) {
	h := newAuthHarness(t)

	req := httptest.NewRequest(http.MethodPost, "/candidate-signup", bytes.NewReader([]byte("{")))
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
