package service

import (
	"context"
	"sync"
	"time"

	"github.com/noah-isme/class-scheduler-api/internal/models"
	"github.com/noah-isme/class-scheduler-api/pkg/cache"
)

// ProposalStore keeps generated proposals until they are accepted or expire.
type ProposalStore interface {
	Save(ctx context.Context, proposal models.ScheduleProposal) error
	Get(ctx context.Context, id string) (models.ScheduleProposal, bool, error)
	Delete(ctx context.Context, id string) error
}

// NewProposalStore returns a Redis-backed store when the cache is enabled and an
// in-process store otherwise.
func NewProposalStore(cacheSvc *CacheService, ttl time.Duration) ProposalStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if cacheSvc.Enabled() {
		return &cachedProposalStore{cache: cacheSvc, ttl: ttl}
	}
	return newMemoryProposalStore(ttl)
}

func proposalKey(id string) string {
	return cache.Key("proposal", id)
}

type cachedProposalStore struct {
	cache *CacheService
	ttl   time.Duration
}

func (s *cachedProposalStore) Save(ctx context.Context, proposal models.ScheduleProposal) error {
	return s.cache.Set(ctx, proposalKey(proposal.ID), proposal, s.ttl)
}

func (s *cachedProposalStore) Get(ctx context.Context, id string) (models.ScheduleProposal, bool, error) {
	var proposal models.ScheduleProposal
	hit, err := s.cache.Get(ctx, proposalKey(id), &proposal)
	if err != nil || !hit {
		return models.ScheduleProposal{}, false, err
	}
	return proposal, true, nil
}

func (s *cachedProposalStore) Delete(ctx context.Context, id string) error {
	return s.cache.Delete(ctx, proposalKey(id))
}

type memoryProposalStore struct {
	ttl   time.Duration
	now   func() time.Time
	mu    sync.RWMutex
	items map[string]models.ScheduleProposal
}

func newMemoryProposalStore(ttl time.Duration) *memoryProposalStore {
	return &memoryProposalStore{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]models.ScheduleProposal),
	}
}

func (s *memoryProposalStore) Save(_ context.Context, proposal models.ScheduleProposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[proposal.ID] = proposal
	s.evictExpiredLocked()
	return nil
}

func (s *memoryProposalStore) Get(ctx context.Context, id string) (models.ScheduleProposal, bool, error) {
	s.mu.RLock()
	proposal, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return models.ScheduleProposal{}, false, nil
	}
	if s.expired(proposal) {
		_ = s.Delete(ctx, id)
		return models.ScheduleProposal{}, false, nil
	}
	return proposal, true, nil
}

func (s *memoryProposalStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
	return nil
}

func (s *memoryProposalStore) expired(proposal models.ScheduleProposal) bool {
	return s.now().Sub(proposal.CreatedAt) > s.ttl
}

func (s *memoryProposalStore) evictExpiredLocked() {
	for id, proposal := range s.items {
		if s.expired(proposal) {
			delete(s.items, id)
		}
	}
}
