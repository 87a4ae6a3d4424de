package generation

import (
	"time"

	"github.com/google/uuid"

	"github.com/shiksha-labs/prashnagen/internal/questions"
	"github.com/shiksha-labs/prashnagen/pkg/db/models"
	"github.com/shiksha-labs/prashnagen/pkg/enums"
)

// Request is the body of POST /api/v1/questions/generate. Fields are checked
// by the service so each failure carries its domain code.
type Request struct {
	TopicID      uuid.UUID `json:"topic_id"`
	QuestionType string    `json:"question_type"`
	BloomLevel   string    `json:"bloom_level"`
	Count        int       `json:"count"`
}

// Result is returned once the questions and the debit are committed.
type Result struct {
	GenerationID   uuid.UUID               `json:"generation_id"`
	Questions      []questions.QuestionDTO `json:"questions"`
	RequestedCount int                     `json:"requested_count"`
	ActualCount    int                     `json:"actual_count"`
	UnitCost       int64                   `json:"unit_cost"`
	CoinsCharged   int64                   `json:"coins_charged"`
	Balance        int64                   `json:"balance"`
	ParseStrategy  Strategy                `json:"parse_strategy"`
}

// RequestDTO is a past generation as shown in the history listing.
type RequestDTO struct {
	ID             uuid.UUID          `json:"id"`
	BoardID        uuid.UUID          `json:"board_id"`
	SubjectID      uuid.UUID          `json:"subject_id"`
	TopicID        uuid.UUID          `json:"topic_id"`
	QuestionType   enums.QuestionType `json:"question_type"`
	BloomLevel     enums.BloomLevel   `json:"bloom_level"`
	RequestedCount int                `json:"requested_count"`
	ActualCount    int                `json:"actual_count"`
	UnitCost       int64              `json:"unit_cost"`
	TotalCost      int64              `json:"total_cost"`
	ParseStrategy  string             `json:"parse_strategy"`
	Model          string             `json:"model"`
	CreatedAt      time.Time          `json:"created_at"`
}

func RequestFromModel(m models.GenerationRequest) RequestDTO {
	return RequestDTO{
		ID:             m.ID,
		BoardID:        m.BoardID,
		SubjectID:      m.SubjectID,
		TopicID:        m.TopicID,
		QuestionType:   m.QuestionType,
		BloomLevel:     m.BloomLevel,
		RequestedCount: m.RequestedCount,
		ActualCount:    m.ActualCount,
		UnitCost:       m.UnitCost,
		TotalCost:      m.TotalCost,
		ParseStrategy:  m.ParseStrategy,
		Model:          m.Model,
		CreatedAt:      m.CreatedAt,
	}
}
