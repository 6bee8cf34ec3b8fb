package bucketing

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobportal/internal/config"
)

func newTestManager(buckets int) *Manager {
	cfg := &config.Config{}
	cfg.Bucketing.AccountBuckets = buckets
	return NewManager(cfg)
}

func TestAccountBucket_Deterministic(t *testing.T) {
	m := newTestManager(16)

	first := m.AccountBucket("5f3c9d2e-account")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, m.AccountBucket("5f3c9d2e-account"))
	}
}

func TestAccountBucket_InRange(t *testing.T) {
	m := newTestManager(16)
	require.Equal(t, 16, m.Buckets())

	for i := 0; i < 1000; i++ {
		b := m.AccountBucket(fmt.Sprintf("account-%d", i))
		assert.GreaterOrEqual(t, b, 0)
		assert.Less(t, b, 16)
	}
}

func TestAccountBucket_SpreadsAccounts(t *testing.T) {
	m := newTestManager(8)

	seen := make(map[int]bool)
	for i := 0; i < 1000; i++ {
		seen[m.AccountBucket(fmt.Sprintf("account-%d", i))] = true
	}
	// 1000 ids over 8 buckets should reach every bucket.
	assert.Len(t, seen, 8)
}
