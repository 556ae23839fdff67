package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/trustgraph/trustgraph/internal/domain/badge"
	"github.com/trustgraph/trustgraph/internal/domain/model"
)

// MemoryStore is an in-process Store used by tests and by the seed tool
// in dry-run mode. It mirrors the sqlite semantics, including ref-pair
// idempotency and last-writer-wins score upserts.
type MemoryStore struct {
	mu sync.RWMutex

	agents   map[string]time.Time
	events   []model.Event
	refs     map[string]struct{}               // "type\x00id"
	scores   map[string]model.Score            // subject\x00skill\x00window
	configs  map[model.Window]model.RankingConfig
	verified map[string]bool
	badges   map[string][]string // subject\x00window\x00skill
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		agents:   make(map[string]time.Time),
		refs:     make(map[string]struct{}),
		scores:   make(map[string]model.Score),
		configs:  make(map[model.Window]model.RankingConfig),
		verified: make(map[string]bool),
		badges:   make(map[string][]string),
	}
}

func scoreKey(subject, skill string, w model.Window) string {
	return subject + "\x00" + skill + "\x00" + string(w)
}

func (s *MemoryStore) UpsertAgent(_ context.Context, id string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agents[id] = now
	return nil
}

func (s *MemoryStore) InsertEvent(_ context.Context, e model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.HasRef() {
		key := e.RefType + "\x00" + e.RefID
		if _, exists := s.refs[key]; exists {
			return fmt.Errorf("%w: (%s, %s)", ErrDuplicate, e.RefType, e.RefID)
		}
		s.refs[key] = struct{}{}
	}
	e.Severity = model.ClampSeverity(e.Severity)
	s.events = append(s.events, e)
	return nil
}

// inWindow reports whether occurred qualifies for w at time now.
func inWindow(occurred time.Time, w model.Window, now time.Time) bool {
	since, bounded := w.Since(now)
	return !bounded || !occurred.Before(since)
}

func (s *MemoryStore) EventsForScoring(_ context.Context, subject, skill string, w model.Window, now time.Time) ([]model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Event, 0)
	for _, e := range s.events {
		if e.Subject != subject {
			continue
		}
		if skill == "" {
			if e.Skill != "" {
				continue
			}
		} else if e.Skill != "" && e.Skill != skill {
			continue
		}
		if !inWindow(e.OccurredAt, w, now) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.Before(out[j].OccurredAt) })
	return out, nil
}

func (s *MemoryStore) UpsertScore(_ context.Context, sc model.Score) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores[scoreKey(sc.Subject, sc.Skill, sc.Window)] = sc
	return nil
}

func (s *MemoryStore) GetScore(_ context.Context, subject, skill string, w model.Window) (model.Score, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.scores[scoreKey(subject, skill, w)]
	if !ok {
		return model.Score{}, fmt.Errorf("%w: score %s/%s/%s", ErrNotFound, subject, skill, w)
	}
	return sc, nil
}

func (s *MemoryStore) ListScores(_ context.Context, w model.Window, skill string) ([]model.Score, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Score, 0)
	for _, sc := range s.scores {
		if sc.Window == w && sc.Skill == skill {
			out = append(out, sc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Subject < out[j].Subject })
	return out, nil
}

func (s *MemoryStore) StaleScoreKeys(_ context.Context, limit int) ([]model.StaleKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	latest := make(map[model.StaleKey]time.Time)
	for _, e := range s.events {
		k := model.StaleKey{Subject: e.Subject, Skill: e.Skill}
		if e.OccurredAt.After(latest[k]) {
			latest[k] = e.OccurredAt
		}
	}

	keys := make([]model.StaleKey, 0)
	for k, occurred := range latest {
		sc, ok := s.scores[scoreKey(k.Subject, k.Skill, model.Window30d)]
		if !ok || occurred.After(sc.UpdatedAt) {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		li, lj := latest[keys[i]], latest[keys[j]]
		if !li.Equal(lj) {
			return li.After(lj) // most stale first
		}
		return keys[i].Subject < keys[j].Subject
	})
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}
	return keys, nil
}

func (s *MemoryStore) DistinctSourceCounts(_ context.Context, w model.Window, now time.Time) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sources := make(map[string]map[string]struct{})
	for _, e := range s.events {
		if !inWindow(e.OccurredAt, w, now) {
			continue
		}
		if sources[e.Subject] == nil {
			sources[e.Subject] = make(map[string]struct{})
		}
		sources[e.Subject][e.Source] = struct{}{}
	}

	out := make(map[string]int, len(sources))
	for subject, set := range sources {
		out[subject] = len(set)
	}
	return out, nil
}

func (s *MemoryStore) VerifiedSubjects(_ context.Context, w model.Window, now time.Time) (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]bool)
	for _, e := range s.events {
		if inWindow(e.OccurredAt, w, now) && s.verified[e.Source] {
			out[e.Subject] = true
		}
	}
	return out, nil
}

func (s *MemoryStore) IntegrityBadCount(_ context.Context, subject string, w model.Window, now time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bad := make(map[string]bool, len(badge.IntegrityBadTypes))
	for _, t := range badge.IntegrityBadTypes {
		bad[t] = true
	}

	n := 0
	for _, e := range s.events {
		if e.Subject == subject && inWindow(e.OccurredAt, w, now) && bad[string(e.Type)] {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) AllSourcesVerified(_ context.Context, subject string, w model.Window, now time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.events {
		if e.Subject == subject && inWindow(e.OccurredAt, w, now) && !s.verified[e.Source] {
			return false, nil
		}
	}
	return true, nil
}

func (s *MemoryStore) RankingConfigFor(_ context.Context, w model.Window) (model.RankingConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if cfg, ok := s.configs[w]; ok {
		return cfg, nil
	}
	return model.DefaultRankingConfig(w), nil
}

func (s *MemoryStore) SetRankingConfig(_ context.Context, cfg model.RankingConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[cfg.Window] = cfg
	return nil
}

func (s *MemoryStore) SetSourceVerified(_ context.Context, source string, verified bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verified[source] = verified
	return nil
}

func (s *MemoryStore) CachedBadges(_ context.Context, w model.Window, skill string) (map[string][]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]string)
	for key, slugs := range s.badges {
		subject, rest, _ := cut(key)
		win, sk, _ := cut(rest)
		if win == string(w) && sk == skill {
			out[subject] = append([]string(nil), slugs...)
		}
	}
	return out, nil
}

func (s *MemoryStore) PutCachedBadges(_ context.Context, subject string, w model.Window, skill string, slugs []string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.badges[subject+"\x00"+string(w)+"\x00"+skill] = append([]string(nil), slugs...)
	return nil
}

func cut(key string) (head, tail string, ok bool) {
	for i := 0; i < len(key); i++ {
		if key[i] == 0 {
			return key[:i], key[i+1:], true
		}
	}
	return key, "", false
}
