package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/trustgraph/trustgraph/internal/domain/badge"
	"github.com/trustgraph/trustgraph/internal/domain/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	sqlite3 "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// SQLStore implements Store over sqlite via gorm.
type SQLStore struct {
	db *gorm.DB
}

// Open opens (or creates) a sqlite database at path using the cgo-free
// driver.
func Open(path string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        path,
	}, &gorm.Config{})
}

// NewSQLStore wraps an opened gorm handle.
func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{db: db}
}

// isUniqueViolation classifies a constraint failure by driver error
// code, never by message text.
func isUniqueViolation(err error) bool {
	var se *sqlite3.Error
	if errors.As(err, &se) {
		code := se.Code()
		return code == sqlite3lib.SQLITE_CONSTRAINT_UNIQUE ||
			code == sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

func (s *SQLStore) UpsertAgent(ctx context.Context, id string, now time.Time) error {
	m := AgentModel{ID: id, CreatedAt: now, LastSeenAt: now}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{"last_seen_at": now}),
	}).Create(&m).Error
	if err != nil {
		return fmt.Errorf("upsert agent: %w", err)
	}
	return nil
}

func (s *SQLStore) InsertEvent(ctx context.Context, e model.Event) error {
	evidence := ""
	if len(e.Evidence) > 0 {
		raw, err := json.Marshal(e.Evidence)
		if err != nil {
			return fmt.Errorf("encode evidence: %w", err)
		}
		evidence = string(raw)
	}

	m := TrustEventModel{
		ID:          e.ID,
		Subject:     e.Subject,
		Actor:       e.Actor,
		Skill:       e.Skill,
		Source:      e.Source,
		EventType:   string(e.Type),
		Outcome:     string(e.Outcome),
		Severity:    model.ClampSeverity(e.Severity),
		ValueMicros: e.ValueMicros,
		OccurredAt:  e.OccurredAt.UTC(),
		ObservedAt:  e.ObservedAt.UTC(),
		RefType:     e.RefType,
		RefID:       e.RefID,
		Evidence:    evidence,
	}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: (%s, %s)", ErrDuplicate, e.RefType, e.RefID)
		}
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (s *SQLStore) EventsForScoring(ctx context.Context, subject, skill string, w model.Window, now time.Time) ([]model.Event, error) {
	q := s.db.WithContext(ctx).Model(&TrustEventModel{}).Where("subject = ?", subject)
	if skill == "" {
		q = q.Where("skill = ''")
	} else {
		q = q.Where("(skill = '' OR skill = ?)", skill)
	}
	if since, ok := w.Since(now); ok {
		q = q.Where("occurred_at >= ?", since.UTC())
	}

	rows := make([]TrustEventModel, 0)
	if err := q.Order("occurred_at ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("events for scoring: %w", err)
	}

	events := make([]model.Event, 0, len(rows))
	for _, m := range rows {
		events = append(events, toEvent(m))
	}
	return events, nil
}

func toEvent(m TrustEventModel) model.Event {
	e := model.Event{
		ID:          m.ID,
		Subject:     m.Subject,
		Actor:       m.Actor,
		Skill:       m.Skill,
		Source:      m.Source,
		Type:        model.EventType(m.EventType),
		Outcome:     model.Outcome(m.Outcome),
		Severity:    m.Severity,
		ValueMicros: m.ValueMicros,
		OccurredAt:  m.OccurredAt,
		ObservedAt:  m.ObservedAt,
		RefType:     m.RefType,
		RefID:       m.RefID,
	}
	if m.Evidence != "" {
		// Evidence is opaque; a decode failure leaves it nil rather than
		// failing the read.
		_ = json.Unmarshal([]byte(m.Evidence), &e.Evidence)
	}
	return e
}

func (s *SQLStore) UpsertScore(ctx context.Context, sc model.Score) error {
	m := TrustScoreModel{
		Subject:     sc.Subject,
		Skill:       sc.Skill,
		Window:      string(sc.Window),
		Reliability: sc.Reliability,
		Integrity:   sc.Integrity,
		Timeliness:  sc.Timeliness,
		Composite:   sc.Composite,
		Volume:      sc.Volume,
		ValueMicros: sc.ValueMicros,
		UpdatedAt:   sc.UpdatedAt.UTC(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "subject"}, {Name: "skill"}, {Name: "window"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"reliability", "integrity", "timeliness", "composite",
			"volume", "value_micros", "updated_at",
		}),
	}).Create(&m).Error
	if err != nil {
		return fmt.Errorf("upsert score: %w", err)
	}
	return nil
}

func (s *SQLStore) GetScore(ctx context.Context, subject, skill string, w model.Window) (model.Score, error) {
	var m TrustScoreModel
	err := s.db.WithContext(ctx).
		Where("subject = ? AND skill = ? AND \"window\" = ?", subject, skill, string(w)).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Score{}, fmt.Errorf("%w: score %s/%s/%s", ErrNotFound, subject, skill, w)
	}
	if err != nil {
		return model.Score{}, fmt.Errorf("get score: %w", err)
	}
	return toScore(m), nil
}

func (s *SQLStore) ListScores(ctx context.Context, w model.Window, skill string) ([]model.Score, error) {
	rows := make([]TrustScoreModel, 0)
	err := s.db.WithContext(ctx).
		Where("\"window\" = ? AND skill = ?", string(w), skill).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	scores := make([]model.Score, 0, len(rows))
	for _, m := range rows {
		scores = append(scores, toScore(m))
	}
	return scores, nil
}

func toScore(m TrustScoreModel) model.Score {
	return model.Score{
		Subject:     m.Subject,
		Skill:       m.Skill,
		Window:      model.Window(m.Window),
		Reliability: m.Reliability,
		Integrity:   m.Integrity,
		Timeliness:  m.Timeliness,
		Composite:   m.Composite,
		Volume:      m.Volume,
		ValueMicros: m.ValueMicros,
		UpdatedAt:   m.UpdatedAt,
	}
}

// StaleScoreKeys compares each key's latest event against its 30d score
// row, avoiding a full recompute scan.
func (s *SQLStore) StaleScoreKeys(ctx context.Context, limit int) ([]model.StaleKey, error) {
	type row struct {
		Subject string
		Skill   string
	}
	rows := make([]row, 0)
	err := s.db.WithContext(ctx).Raw(`
WITH latest_events AS (
    SELECT subject, skill, MAX(occurred_at) AS latest_occurred
    FROM trust_events
    GROUP BY subject, skill
)
SELECT e.subject, e.skill
FROM latest_events e
LEFT JOIN trust_scores s
    ON s.subject = e.subject AND s.skill = e.skill AND s."window" = ?
WHERE s.updated_at IS NULL OR e.latest_occurred > s.updated_at
ORDER BY e.latest_occurred DESC
LIMIT ?
`, string(model.Window30d), limit).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("stale score keys: %w", err)
	}

	keys := make([]model.StaleKey, 0, len(rows))
	for _, r := range rows {
		keys = append(keys, model.StaleKey{Subject: r.Subject, Skill: r.Skill})
	}
	return keys, nil
}

func (s *SQLStore) DistinctSourceCounts(ctx context.Context, w model.Window, now time.Time) (map[string]int, error) {
	type row struct {
		Subject string
		N       int
	}
	q := s.db.WithContext(ctx).Model(&TrustEventModel{}).
		Select("subject, COUNT(DISTINCT source) AS n").
		Group("subject")
	if since, ok := w.Since(now); ok {
		q = q.Where("occurred_at >= ?", since.UTC())
	}

	rows := make([]row, 0)
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("distinct source counts: %w", err)
	}
	out := make(map[string]int, len(rows))
	for _, r := range rows {
		out[r.Subject] = r.N
	}
	return out, nil
}

func (s *SQLStore) VerifiedSubjects(ctx context.Context, w model.Window, now time.Time) (map[string]bool, error) {
	q := s.db.WithContext(ctx).Model(&TrustEventModel{}).
		Select("DISTINCT trust_events.subject").
		Joins("JOIN trusted_sources ts ON ts.source = trust_events.source AND ts.verified = 1")
	if since, ok := w.Since(now); ok {
		q = q.Where("trust_events.occurred_at >= ?", since.UTC())
	}

	subjects := make([]string, 0)
	if err := q.Scan(&subjects).Error; err != nil {
		return nil, fmt.Errorf("verified subjects: %w", err)
	}
	out := make(map[string]bool, len(subjects))
	for _, sub := range subjects {
		out[sub] = true
	}
	return out, nil
}

func (s *SQLStore) IntegrityBadCount(ctx context.Context, subject string, w model.Window, now time.Time) (int, error) {
	q := s.db.WithContext(ctx).Model(&TrustEventModel{}).
		Where("subject = ?", subject).
		Where("event_type IN ?", badge.IntegrityBadTypes)
	if since, ok := w.Since(now); ok {
		q = q.Where("occurred_at >= ?", since.UTC())
	}

	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("integrity bad count: %w", err)
	}
	return int(n), nil
}

func (s *SQLStore) AllSourcesVerified(ctx context.Context, subject string, w model.Window, now time.Time) (bool, error) {
	q := s.db.WithContext(ctx).Model(&TrustEventModel{}).
		Where("subject = ?", subject).
		Where("NOT EXISTS (SELECT 1 FROM trusted_sources ts WHERE ts.source = trust_events.source AND ts.verified = 1)")
	if since, ok := w.Since(now); ok {
		q = q.Where("occurred_at >= ?", since.UTC())
	}

	var unverified int64
	if err := q.Count(&unverified).Error; err != nil {
		return false, fmt.Errorf("all sources verified: %w", err)
	}
	return unverified == 0, nil
}

func (s *SQLStore) RankingConfigFor(ctx context.Context, w model.Window) (model.RankingConfig, error) {
	var m RankingConfigModel
	err := s.db.WithContext(ctx).Where("\"window\" = ?", string(w)).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.DefaultRankingConfig(w), nil
	}
	if err != nil {
		return model.RankingConfig{}, fmt.Errorf("ranking config: %w", err)
	}
	return model.RankingConfig{
		Window:           w,
		MinEvents:        m.MinEvents,
		MinUniqueSources: m.MinUniqueSources,
	}, nil
}

func (s *SQLStore) SetRankingConfig(ctx context.Context, cfg model.RankingConfig) error {
	m := RankingConfigModel{
		Window:           string(cfg.Window),
		MinEvents:        cfg.MinEvents,
		MinUniqueSources: cfg.MinUniqueSources,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "window"}},
		DoUpdates: clause.AssignmentColumns([]string{"min_events", "min_unique_sources"}),
	}).Create(&m).Error
	if err != nil {
		return fmt.Errorf("set ranking config: %w", err)
	}
	return nil
}

func (s *SQLStore) SetSourceVerified(ctx context.Context, source string, verified bool) error {
	m := TrustedSourceModel{Source: source, Verified: verified, CreatedAt: time.Now().UTC()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "source"}},
		DoUpdates: clause.Assignments(map[string]any{"verified": verified}),
	}).Create(&m).Error
	if err != nil {
		return fmt.Errorf("set source verified: %w", err)
	}
	return nil
}

func (s *SQLStore) CachedBadges(ctx context.Context, w model.Window, skill string) (map[string][]string, error) {
	rows := make([]AgentBadgeModel, 0)
	err := s.db.WithContext(ctx).
		Where("\"window\" = ? AND skill = ?", string(w), skill).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("cached badges: %w", err)
	}
	out := make(map[string][]string)
	for _, m := range rows {
		out[m.Subject] = append(out[m.Subject], m.Slug)
	}
	return out, nil
}

func (s *SQLStore) PutCachedBadges(ctx context.Context, subject string, w model.Window, skill string, slugs []string, now time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("subject = ? AND \"window\" = ? AND skill = ?", subject, string(w), skill).
			Delete(&AgentBadgeModel{}).Error; err != nil {
			return fmt.Errorf("clear cached badges: %w", err)
		}
		for _, slug := range slugs {
			m := AgentBadgeModel{
				Subject:   subject,
				Window:    string(w),
				Skill:     skill,
				Slug:      slug,
				AwardedAt: now.UTC(),
			}
			if err := tx.Create(&m).Error; err != nil {
				return fmt.Errorf("cache badge: %w", err)
			}
		}
		return nil
	})
}
