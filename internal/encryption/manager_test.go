package encryption

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobportal/internal/config"
)

func TestEncryptDecryptField_RoundTrip(t *testing.T) {
	m := NewManager(&config.Config{}, nil)
	ctx := context.Background()

	enc, err := m.EncryptField(ctx, "+919812345678")
	require.NoError(t, err)
	require.NotEmpty(t, enc.Value)
	require.NotEmpty(t, enc.DEK)
	assert.NotContains(t, string(enc.Value), "9812345678")

	plain, err := m.DecryptField(ctx, enc)
	require.NoError(t, err)
	assert.Equal(t, "+919812345678", plain)
}

func TestEncryptField_FreshNoncePerCall(t *testing.T) {
	m := NewManager(&config.Config{}, nil)
	ctx := context.Background()

	first, err := m.EncryptField(ctx, "+919812345678")
	require.NoError(t, err)
	second, err := m.EncryptField(ctx, "+919812345678")
	require.NoError(t, err)

	assert.NotEqual(t, first.Value, second.Value)
}

func TestDecryptField_TamperedCiphertext(t *testing.T) {
	m := NewManager(&config.Config{}, nil)
	ctx := context.Background()

	enc, err := m.EncryptField(ctx, "+919812345678")
	require.NoError(t, err)

	enc.Value[len(enc.Value)-1] ^= 0xff
	_, err = m.DecryptField(ctx, enc)
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestDecryptField_SurvivesCacheClear(t *testing.T) {
	m := NewManager(&config.Config{}, nil)
	ctx := context.Background()

	enc, err := m.EncryptField(ctx, "+919812345678")
	require.NoError(t, err)

	m.ClearCache()
	plain, err := m.DecryptField(ctx, enc)
	require.NoError(t, err)
	assert.Equal(t, "+919812345678", plain)
}
