package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/shiksha-labs/prashnagen/pkg/enums"
)

// GenerationRequest records one committed generation: what was asked and what was billed.
type GenerationRequest struct {
	ID             uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID         uuid.UUID          `gorm:"column:user_id;type:uuid;not null"`
	BoardID        uuid.UUID          `gorm:"column:board_id;type:uuid;not null"`
	SubjectID      uuid.UUID          `gorm:"column:subject_id;type:uuid;not null"`
	TopicID        uuid.UUID          `gorm:"column:topic_id;type:uuid;not null"`
	QuestionType   enums.QuestionType `gorm:"column:question_type;type:question_type;not null"`
	BloomLevel     enums.BloomLevel   `gorm:"column:bloom_level;type:bloom_level;not null"`
	RequestedCount int                `gorm:"column:requested_count;not null"`
	ActualCount    int                `gorm:"column:actual_count;not null"`
	UnitCost       int64              `gorm:"column:unit_cost;not null"`
	TotalCost      int64              `gorm:"column:total_cost;not null"`
	ParseStrategy  string             `gorm:"column:parse_strategy;not null"`
	Model          string             `gorm:"column:model;not null;default:''"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime"`
}

func (GenerationRequest) TableName() string { return "generation_requests" }
