package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/shiksha-labs/prashnagen/pkg/enums"
)

// AIRule is an admin-authored instruction appended to generation prompts.
// A nil QuestionType applies the rule to every type.
type AIRule struct {
	ID           uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string              `gorm:"column:name;not null"`
	QuestionType *enums.QuestionType `gorm:"column:question_type;type:question_type"`
	Instruction  string              `gorm:"column:instruction;not null"`
	Priority     int                 `gorm:"column:priority;not null;default:0"`
	IsActive     bool                `gorm:"column:is_active;not null"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (AIRule) TableName() string { return "ai_rules" }

// BloomSample is an example question used to steer the style of a bloom level.
type BloomSample struct {
	ID           uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BloomLevel   enums.BloomLevel    `gorm:"column:bloom_level;type:bloom_level;not null"`
	QuestionType *enums.QuestionType `gorm:"column:question_type;type:question_type"`
	SampleText   string              `gorm:"column:sample_text;not null"`
	IsActive     bool                `gorm:"column:is_active;not null"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (BloomSample) TableName() string { return "bloom_samples" }
