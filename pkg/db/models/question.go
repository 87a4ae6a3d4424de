package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/shiksha-labs/prashnagen/pkg/db/types"
	"github.com/shiksha-labs/prashnagen/pkg/enums"
)

// Question is a generated question owned by the account that paid for it.
type Question struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerUserID    uuid.UUID            `gorm:"column:owner_user_id;type:uuid;not null"`
	GenerationID   uuid.UUID            `gorm:"column:generation_id;type:uuid;not null"`
	BoardID        uuid.UUID            `gorm:"column:board_id;type:uuid;not null"`
	SubjectID      uuid.UUID            `gorm:"column:subject_id;type:uuid;not null"`
	TopicID        uuid.UUID            `gorm:"column:topic_id;type:uuid;not null"`
	QuestionType   enums.QuestionType   `gorm:"column:question_type;type:question_type;not null"`
	BloomLevel     enums.BloomLevel     `gorm:"column:bloom_level;type:bloom_level;not null"`
	Text           string               `gorm:"column:text;not null"`
	Options        dbtypes.StringList   `gorm:"column:options;type:jsonb;not null"`
	CorrectAnswer  string               `gorm:"column:correct_answer;not null"`
	Explanation    string               `gorm:"column:explanation;not null;default:''"`
	Marks          *float64             `gorm:"column:marks"`
	CognitiveLevel *string              `gorm:"column:cognitive_level"`
	Status         enums.QuestionStatus `gorm:"column:status;type:question_status;not null;default:pending_review"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (Question) TableName() string { return "questions" }
