package repository

import "time"

type AgentModel struct {
	ID         string `gorm:"primaryKey"`
	CreatedAt  time.Time
	LastSeenAt time.Time
}

func (AgentModel) TableName() string { return "agents" }

type TrustEventModel struct {
	ID          string    `gorm:"primaryKey"`
	Subject     string    `gorm:"not null;index"`
	Actor       string    `gorm:"not null;default:''"`
	Skill       string    `gorm:"not null;default:''"`
	Source      string    `gorm:"not null"`
	EventType   string    `gorm:"not null"`
	Outcome     string    `gorm:"not null"`
	Severity    int       `gorm:"not null"`
	ValueMicros int64     `gorm:"not null;default:0"`
	OccurredAt  time.Time `gorm:"not null;index"`
	ObservedAt  time.Time `gorm:"not null"`
	RefType     string    `gorm:"not null;default:''"`
	RefID       string    `gorm:"not null;default:''"`
	Evidence    string
}

func (TrustEventModel) TableName() string { return "trust_events" }

type TrustScoreModel struct {
	Subject     string `gorm:"primaryKey"`
	Skill       string `gorm:"primaryKey;not null;default:''"`
	Window      string `gorm:"primaryKey"`
	Reliability float64
	Integrity   float64
	Timeliness  float64
	Composite   float64
	Volume      int
	ValueMicros int64
	UpdatedAt   time.Time
}

func (TrustScoreModel) TableName() string { return "trust_scores" }

type RankingConfigModel struct {
	Window           string `gorm:"primaryKey"`
	MinEvents        int    `gorm:"not null"`
	MinUniqueSources int    `gorm:"not null"`
}

func (RankingConfigModel) TableName() string { return "ranking_config" }

type TrustedSourceModel struct {
	Source    string `gorm:"primaryKey"`
	Verified  bool   `gorm:"not null;default:false"`
	CreatedAt time.Time
}

func (TrustedSourceModel) TableName() string { return "trusted_sources" }

type AgentBadgeModel struct {
	Subject   string `gorm:"primaryKey"`
	Window    string `gorm:"primaryKey"`
	Skill     string `gorm:"primaryKey;not null;default:''"`
	Slug      string `gorm:"primaryKey"`
	AwardedAt time.Time
}

func (AgentBadgeModel) TableName() string { return "agent_badges" }
