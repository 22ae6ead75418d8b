package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/volleyscore/scoreboard/internal/domain"
)

// MemoryStore is a process-local Store. A single mutex serialises writers; each mutation
// works on a clone that replaces the stored value only when fn succeeds.
type MemoryStore struct {
	mu       sync.RWMutex
	bundles  map[uuid.UUID]*domain.MatchBundle
	order    []uuid.UUID
	teams    map[uuid.UUID]uuid.UUID // team id → match id
	settings *domain.Settings
	outbox   []domain.OutboxRecord
	nextSeq  int64
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		bundles: make(map[uuid.UUID]*domain.MatchBundle),
		teams:   make(map[uuid.UUID]uuid.UUID),
	}
}

var (
	_ Store        = (*MemoryStore)(nil)
	_ OutboxSource = (*MemoryStore)(nil)
)

func (s *MemoryStore) Current(_ context.Context) (*domain.MatchBundle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.order) == 0 {
		return nil, nil
	}
	return s.bundles[s.order[len(s.order)-1]].Clone(), nil
}

func (s *MemoryStore) Get(_ context.Context, matchID uuid.UUID) (*domain.MatchBundle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bundles[matchID]
	if !ok {
		return nil, nil
	}
	return b.Clone(), nil
}

func (s *MemoryStore) Create(_ context.Context, b *domain.MatchBundle, events []domain.OutboxDraft) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.bundles[b.Match.ID]; exists {
		return domain.ErrConflict("match " + b.Match.ID.String() + " already exists")
	}
	s.bundles[b.Match.ID] = b.Clone()
	s.order = append(s.order, b.Match.ID)
	s.teams[b.HomeTeam.ID] = b.Match.ID
	s.teams[b.AwayTeam.ID] = b.Match.ID
	s.appendEvents(events)
	return nil
}

func (s *MemoryStore) UpdateMatch(_ context.Context, matchID uuid.UUID, fn MatchMutation) (*domain.MatchBundle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.bundles[matchID]
	if !ok {
		return nil, domain.ErrNotFound("match", matchID.String())
	}
	work := stored.Clone()
	events, err := fn(work)
	if err != nil {
		return nil, err
	}
	// Team edits go through UpdateTeam only.
	work.HomeTeam = stored.HomeTeam
	work.AwayTeam = stored.AwayTeam
	s.bundles[matchID] = work
	s.appendEvents(events)
	return work.Clone(), nil
}

func (s *MemoryStore) UpdateTeam(_ context.Context, teamID uuid.UUID, fn TeamMutation) (*domain.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matchID, ok := s.teams[teamID]
	if !ok {
		return nil, domain.ErrNotFound("team", teamID.String())
	}
	stored := s.bundles[matchID]
	side := domain.SideHome
	if stored.AwayTeam.ID == teamID {
		side = domain.SideAway
	}
	work := stored.Team(side).Clone()
	events, err := fn(&work)
	if err != nil {
		return nil, err
	}

	next := stored.Clone()
	if side == domain.SideHome {
		next.HomeTeam = work
	} else {
		next.AwayTeam = work
	}
	s.bundles[matchID] = next
	s.appendEvents(events)
	out := work.Clone()
	return &out, nil
}

func (s *MemoryStore) Settings(_ context.Context) (*domain.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.settings == nil {
		def := domain.DefaultSettings()
		return &def, nil
	}
	out := s.settings.Clone()
	return &out, nil
}

func (s *MemoryStore) UpdateSettings(_ context.Context, fn SettingsMutation) (*domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := domain.DefaultSettings()
	if s.settings != nil {
		work = s.settings.Clone()
	}
	events, err := fn(&work)
	if err != nil {
		return nil, err
	}
	s.settings = &work
	s.appendEvents(events)
	out := work.Clone()
	return &out, nil
}

func (s *MemoryStore) Ping(_ context.Context) error {
	return nil
}

func (s *MemoryStore) FetchUnpublished(_ context.Context, limit int) ([]domain.OutboxRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.outbox)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.OutboxRecord, n)
	copy(out, s.outbox[:n])
	return out, nil
}

func (s *MemoryStore) MarkPublished(_ context.Context, seqIDs []int64) error {
	if len(seqIDs) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	done := make(map[int64]struct{}, len(seqIDs))
	for _, id := range seqIDs {
		done[id] = struct{}{}
	}
	kept := s.outbox[:0]
	for _, rec := range s.outbox {
		if _, ok := done[rec.SeqID]; !ok {
			kept = append(kept, rec)
		}
	}
	s.outbox = kept
	return nil
}

// must hold s.mu
func (s *MemoryStore) appendEvents(events []domain.OutboxDraft) {
	for _, ev := range events {
		s.nextSeq++
		s.outbox = append(s.outbox, domain.OutboxRecord{SeqID: s.nextSeq, OutboxDraft: ev})
	}
}
