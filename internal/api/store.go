package api

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// LaunchStore keeps finished launches in memory for later retrieval.
type LaunchStore struct {
	mu       sync.Mutex
	launches map[string]Launch
}

func NewLaunchStore() *LaunchStore {
	return &LaunchStore{launches: make(map[string]Launch)}
}

func (s *LaunchStore) Save(l Launch) {
	s.mu.Lock()
	s.launches[l.ID] = l
	s.mu.Unlock()
}

func (s *LaunchStore) Get(id string) (Launch, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.launches[id]
	return l, ok
}

// List returns stored launches, newest first.
func (s *LaunchStore) List() []Launch {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Launch, 0, len(s.launches))
	for _, l := range s.launches {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func newLaunchID() string {
	return "launch_" + uuid.NewString()
}
