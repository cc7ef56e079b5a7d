package collector

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps pages in a map. Nothing survives a restart.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	pages  map[int64]*Page
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{pages: make(map[int64]*Page)}
}

func (s *MemoryStore) Create(_ context.Context, url, html string) (*Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	p := &Page{ID: s.nextID, URL: url, HTML: html, CreatedAt: time.Now().UTC()}
	s.pages[p.ID] = p
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) Get(_ context.Context, id int64) (*Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pages[id]
	if !ok {
		return nil, ErrPageNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) List(_ context.Context) ([]*Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Page, 0, len(s.pages))
	for _, p := range s.pages {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
