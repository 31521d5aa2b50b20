// Package models defines the run-journal schema: every pipeline run and the
// property pairs it produced, so experiments stay comparable after the CSV
// artifacts have been overwritten.
package models

import (
	"time"

	"gorm.io/datatypes"
)

// Run statuses.
const (
	RunRunning  = "running"
	RunFinished = "finished"
	RunFailed   = "failed"
)

// Run records one orchestrated pipeline execution.
type Run struct {
	ID uint `gorm:"primaryKey"`

	SrcLang string `gorm:"type:varchar(8);not null;index"`
	TrgLang string `gorm:"type:varchar(8);not null;index"`
	Suffix  string `gorm:"type:varchar(64)"`

	// Params keeps the full effective configuration as JSON.
	Params datatypes.JSON `gorm:"type:jsonb"`

	// Statistics
	SrcProperties int `gorm:"default:0"`
	TrgProperties int `gorm:"default:0"`
	SrcSubjects   int `gorm:"default:0"`
	TrgSubjects   int `gorm:"default:0"`
	DirectCount   int `gorm:"default:0"`
	EntityCount   int `gorm:"default:0"`

	Status     string    `gorm:"type:varchar(16);default:'running'"`
	Error      string    `gorm:"type:text"`
	StartedAt  time.Time `gorm:"autoCreateTime"`
	FinishedAt *time.Time

	Matches []Match `gorm:"foreignKey:RunID"`
}

// TableName overrides the default pluralization.
func (Run) TableName() string { return "runs" }

// Match kinds.
const (
	MatchDirect = "direct"
	MatchEntity = "entity"
)

// Match is one matched property pair of a run.
type Match struct {
	ID    uint `gorm:"primaryKey"`
	RunID uint `gorm:"index;not null"`

	Source string `gorm:"type:varchar(255);not null"`
	Target string `gorm:"type:varchar(255);not null"`
	Kind   string `gorm:"type:varchar(16);not null"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName overrides the default pluralization.
func (Match) TableName() string { return "matches" }
