package filestore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"task-wallet/internal/core/domain/entities"

	"go.uber.org/zap"
)

// CompletedSet records the task IDs the user has already submitted, one JSON
// file per category. The local record always wins over remote label state
// when deciding what to present, so a lost write only risks showing a task
// twice, never hiding one.
type CompletedSet struct {
	dir string
	mu  sync.Mutex
	log *zap.Logger
}

func NewCompletedSet(dir string, log *zap.Logger) *CompletedSet {
	if log == nil {
		panic("logger is nil")
	}
	return &CompletedSet{
		dir: dir,
		log: log,
	}
}

func (s *CompletedSet) Load(category entities.TaskCategory) map[int64]struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(category)
}

func (s *CompletedSet) Add(category entities.TaskCategory, taskID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.load(category)
	if _, ok := set[taskID]; ok {
		return
	}
	set[taskID] = struct{}{}

	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	data, err := json.Marshal(ids)
	if err != nil {
		s.log.Warn("completed set: marshal failed, not persisted", zap.String("category", string(category)), zap.Error(err))
		return
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		s.log.Warn("completed set: mkdir failed, not persisted", zap.String("category", string(category)), zap.Error(err))
		return
	}
	if err := os.WriteFile(s.path(category), data, 0o600); err != nil {
		s.log.Warn("completed set: write failed, not persisted", zap.String("category", string(category)), zap.Error(err))
	}
}

func (s *CompletedSet) load(category entities.TaskCategory) map[int64]struct{} {
	set := make(map[int64]struct{})

	data, err := os.ReadFile(s.path(category))
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("completed set: read failed, treating as empty", zap.String("category", string(category)), zap.Error(err))
		}
		return set
	}

	var ids []int64
	if err := json.Unmarshal(data, &ids); err != nil {
		s.log.Warn("completed set: corrupt file, treating as empty", zap.String("category", string(category)), zap.Error(err))
		return set
	}
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func (s *CompletedSet) path(category entities.TaskCategory) string {
	return filepath.Join(s.dir, "completed_"+string(category)+".json")
}
