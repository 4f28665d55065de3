package service

import (
	"context"
	"sync"
	"time"

	"github.com/noah-isme/timetable-api/internal/dto"
)

const proposalCachePrefix = "timetable:proposal:"

type proposalStore interface {
	Save(ctx context.Context, proposal dto.TimetableProposal) error
	Get(ctx context.Context, id string) (dto.TimetableProposal, bool)
	Delete(ctx context.Context, id string)
}

// memoryProposalStore keeps previews in process. Entries expire lazily on read.
type memoryProposalStore struct {
	ttl   time.Duration
	now   func() time.Time
	mu    sync.RWMutex
	items map[string]dto.TimetableProposal
}

func newMemoryProposalStore(ttl time.Duration) *memoryProposalStore {
	return &memoryProposalStore{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]dto.TimetableProposal),
	}
}

func (s *memoryProposalStore) Save(_ context.Context, proposal dto.TimetableProposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[proposal.ProposalID] = proposal
	return nil
}

func (s *memoryProposalStore) Get(ctx context.Context, id string) (dto.TimetableProposal, bool) {
	s.mu.RLock()
	proposal, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return dto.TimetableProposal{}, false
	}
	if s.now().Sub(proposal.GeneratedAt) > s.ttl {
		s.Delete(ctx, id)
		return dto.TimetableProposal{}, false
	}
	return proposal, true
}

func (s *memoryProposalStore) Delete(_ context.Context, id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}

// cacheProposalStore shares previews between replicas through Redis. Expiry is left to the
// key TTL.
type cacheProposalStore struct {
	cache *CacheService
	ttl   time.Duration
}

func newCacheProposalStore(cache *CacheService, ttl time.Duration) *cacheProposalStore {
	return &cacheProposalStore{cache: cache, ttl: ttl}
}

func (s *cacheProposalStore) Save(ctx context.Context, proposal dto.TimetableProposal) error {
	return s.cache.Set(ctx, proposalCachePrefix+proposal.ProposalID, proposal, s.ttl)
}

func (s *cacheProposalStore) Get(ctx context.Context, id string) (dto.TimetableProposal, bool) {
	var proposal dto.TimetableProposal
	hit, err := s.cache.Get(ctx, proposalCachePrefix+id, &proposal)
	if err != nil || !hit {
		return dto.TimetableProposal{}, false
	}
	return proposal, true
}

func (s *cacheProposalStore) Delete(ctx context.Context, id string) {
	_ = s.cache.Delete(ctx, proposalCachePrefix+id)
}
