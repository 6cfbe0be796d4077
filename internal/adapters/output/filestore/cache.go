package filestore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"task-wallet/internal/core/domain/entities"

	"go.uber.org/zap"
)

// TaskCache keeps one JSON file per category under dir. Storage failures
// degrade: a bad read is a miss, a failed write leaves the in-memory result
// usable for the session. Entries are replaced wholesale on Put.
type TaskCache struct {
	dir string
	mu  sync.Mutex
	ttl time.Duration
	now func() time.Time
	log *zap.Logger
}

func NewTaskCache(dir string, ttl time.Duration, log *zap.Logger) *TaskCache {
	if log == nil {
		panic("logger is nil")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TaskCache{
		dir: dir,
		ttl: ttl,
		now: time.Now,
		log: log,
	}
}

// SetTTL applies a runtime-edited expiry window to subsequent reads.
func (c *TaskCache) SetTTL(ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.ttl = ttl
	c.mu.Unlock()
}

func (c *TaskCache) Get(category entities.TaskCategory) (*entities.CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path(category))
	if err != nil {
		if !os.IsNotExist(err) {
			c.log.Warn("cache: read failed, treating as miss", zap.String("category", string(category)), zap.Error(err))
		}
		return nil, false
	}

	entry := entities.CacheEntry{}
	if err := json.Unmarshal(data, &entry); err != nil {
		c.log.Warn("cache: corrupt entry, treating as miss", zap.String("category", string(category)), zap.Error(err))
		return nil, false
	}

	if entry.Expired(c.ttl, c.now()) {
		c.log.Debug("cache: entry expired", zap.String("category", string(category)), zap.Time("fetched_at", entry.FetchedAt))
		return nil, false
	}
	return &entry, true
}

func (c *TaskCache) Put(category entities.TaskCategory, tasks []entities.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := entities.CacheEntry{
		Tasks:     tasks,
		FetchedAt: c.now(),
	}
	data, err := json.Marshal(&entry)
	if err != nil {
		c.log.Warn("cache: marshal failed, entry not persisted", zap.String("category", string(category)), zap.Error(err))
		return
	}

	if err := os.MkdirAll(c.dir, 0o700); err != nil {
		c.log.Warn("cache: mkdir failed, entry not persisted", zap.String("category", string(category)), zap.Error(err))
		return
	}
	if err := os.WriteFile(c.path(category), data, 0o600); err != nil {
		c.log.Warn("cache: write failed, entry not persisted", zap.String("category", string(category)), zap.Error(err))
	}
}

func (c *TaskCache) Clear(category entities.TaskCategory) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.Remove(c.path(category)); err != nil && !os.IsNotExist(err) {
		c.log.Warn("cache: clear failed", zap.String("category", string(category)), zap.Error(err))
	}
}

func (c *TaskCache) path(category entities.TaskCategory) string {
	return filepath.Join(c.dir, "tasks_"+string(category)+".json")
}
