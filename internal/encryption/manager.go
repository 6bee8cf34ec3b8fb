package encryption

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"

	"jobportal/internal/config"
)

var (
	ErrEncryptionFailed = errors.New("encryption failed")
	ErrDecryptionFailed = errors.New("decryption failed")
)

// Manager envelope-encrypts account phone numbers before they reach the
// credential store. With KMS disabled (development) the data key is only
// base64-wrapped, which keeps the storage format identical across
// environments.
type Manager struct {
	kmsClient *kms.Client
	config    *config.Config
	keyCache  sync.Map // encrypted DEK -> plaintext DEK
}

// Encrypted carries the three columns persisted alongside the account row.
type Encrypted struct {
	Value []byte // nonce || ciphertext
	DEK   string // base64 wrapped data key
	KeyID string
}

func NewManager(cfg *config.Config, kmsClient *kms.Client) *Manager {
	return &Manager{
		kmsClient: kmsClient,
		config:    cfg,
	}
}

func (m *Manager) dataKey(ctx context.Context) (plaintext, wrapped []byte, keyID string, err error) {
	if !m.config.KMS.Enabled {
		key := make([]byte, 32) // AES-256
		if _, err := rand.Read(key); err != nil {
			return nil, nil, "", fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
		}
		return key, []byte(base64.StdEncoding.EncodeToString(key)), "local", nil
	}

	out, err := m.kmsClient.GenerateDataKey(ctx, &kms.GenerateDataKeyInput{
		KeyId:   aws.String(m.config.KMS.KeyID),
		KeySpec: types.DataKeySpecAes256,
	})
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to generate data key: %w", err)
	}
	return out.Plaintext, out.CiphertextBlob, m.config.KMS.KeyID, nil
}

func (m *Manager) unwrapDEK(ctx context.Context, wrapped string) ([]byte, error) {
	if cached, ok := m.keyCache.Load(wrapped); ok {
		return cached.([]byte), nil
	}

	raw, err := base64.StdEncoding.DecodeString(wrapped)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid DEK format", ErrDecryptionFailed)
	}

	var key []byte
	if m.config.KMS.Enabled {
		out, err := m.kmsClient.Decrypt(ctx, &kms.DecryptInput{CiphertextBlob: raw})
		if err != nil {
			return nil, fmt.Errorf("%w: failed to decrypt DEK: %v", ErrDecryptionFailed, err)
		}
		key = out.Plaintext
	} else {
		// Local DEKs are double-encoded: the wrapped form is base64 of the
		// base64 key text.
		key, err = base64.StdEncoding.DecodeString(string(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: invalid local DEK", ErrDecryptionFailed)
		}
	}

	m.keyCache.Store(wrapped, key)
	return key, nil
}

// EncryptField seals a sensitive field with a fresh data key.
func (m *Manager) EncryptField(ctx context.Context, plaintext string) (*Encrypted, error) {
	key, wrapped, keyID, err := m.dataKey(ctx)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}

	wrappedB64 := base64.StdEncoding.EncodeToString(wrapped)
	m.keyCache.Store(wrappedB64, key)

	return &Encrypted{
		Value: gcm.Seal(nonce, nonce, []byte(plaintext), nil),
		DEK:   wrappedB64,
		KeyID: keyID,
	}, nil
}

// DecryptField opens a field sealed by EncryptField.
func (m *Manager) DecryptField(ctx context.Context, enc *Encrypted) (string, error) {
	key, err := m.unwrapDEK(ctx, enc.DEK)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}

	if len(enc.Value) < gcm.NonceSize() {
		return "", fmt.Errorf("%w: ciphertext too short", ErrDecryptionFailed)
	}

	nonce, ciphertext := enc.Value[:gcm.NonceSize()], enc.Value[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}

	return string(plaintext), nil
}

// ClearCache drops cached data keys.
func (m *Manager) ClearCache() {
	m.keyCache.Range(func(key, _ interface{}) bool {
		m.keyCache.Delete(key)
		return true
	})
}
