package bucketing

import (
	"hash"
	"sync"

	"github.com/spaolacci/murmur3"

	"jobportal/internal/config"
)

// Manager maps account ids to partition buckets so that the accounts table
// never develops hot partitions. The bucket count is fixed per deployment;
// changing it requires a data migration.
type Manager struct {
	accountBuckets int
	hasherPool     sync.Pool
}

func NewManager(cfg *config.Config) *Manager {
	m := &Manager{
		accountBuckets: cfg.Bucketing.AccountBuckets,
	}

	// Pool of hash functions to avoid allocation overhead on the hot path.
	m.hasherPool = sync.Pool{
		New: func() interface{} {
			return murmur3.New64()
		},
	}

	return m
}

// AccountBucket returns the consistent bucket (0..accountBuckets-1) for an
// account id.
func (m *Manager) AccountBucket(accountID string) int {
	hasher := m.hasherPool.Get().(hash.Hash64)
	defer m.hasherPool.Put(hasher)

	hasher.Reset()
	_, _ = hasher.Write([]byte(accountID))

	return int(hasher.Sum64() % uint64(m.accountBuckets))
}

// Buckets returns the total bucket count, used by full scans that must visit
// every partition.
func (m *Manager) Buckets() int {
	return m.accountBuckets
}
