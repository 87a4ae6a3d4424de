package questions

import (
	"time"

	"github.com/google/uuid"

	"github.com/shiksha-labs/prashnagen/pkg/db/models"
	"github.com/shiksha-labs/prashnagen/pkg/enums"
)

// QuestionDTO is the API shape of a generated question.
type QuestionDTO struct {
	ID             uuid.UUID            `json:"id"`
	OwnerUserID    uuid.UUID            `json:"owner_user_id"`
	GenerationID   uuid.UUID            `json:"generation_id"`
	BoardID        uuid.UUID            `json:"board_id"`
	SubjectID      uuid.UUID            `json:"subject_id"`
	TopicID        uuid.UUID            `json:"topic_id"`
	QuestionType   enums.QuestionType   `json:"question_type"`
	BloomLevel     enums.BloomLevel     `json:"bloom_level"`
	Text           string               `json:"question"`
	Options        []string             `json:"options"`
	CorrectAnswer  string               `json:"correct_answer"`
	Explanation    string               `json:"explanation"`
	Marks          *float64             `json:"marks,omitempty"`
	CognitiveLevel *string              `json:"cognitive_level,omitempty"`
	Status         enums.QuestionStatus `json:"status"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// Filter narrows question listings; zero values mean "any".
type Filter struct {
	OwnerUserID  *uuid.UUID
	TopicID      *uuid.UUID
	QuestionType *enums.QuestionType
	BloomLevel   *enums.BloomLevel
	Status       *enums.QuestionStatus
	GenerationID *uuid.UUID
}

// ReviewRequest is an admin decision on a pending question.
type ReviewRequest struct {
	Status enums.QuestionStatus `json:"status" validate:"required,enum"`
}

func FromModel(q models.Question) QuestionDTO {
	options := []string(q.Options)
	if options == nil {
		options = []string{}
	}
	return QuestionDTO{
		ID:             q.ID,
		OwnerUserID:    q.OwnerUserID,
		GenerationID:   q.GenerationID,
		BoardID:        q.BoardID,
		SubjectID:      q.SubjectID,
		TopicID:        q.TopicID,
		QuestionType:   q.QuestionType,
		BloomLevel:     q.BloomLevel,
		Text:           q.Text,
		Options:        options,
		CorrectAnswer:  q.CorrectAnswer,
		Explanation:    q.Explanation,
		Marks:          q.Marks,
		CognitiveLevel: q.CognitiveLevel,
		Status:         q.Status,
		CreatedAt:      q.CreatedAt,
		UpdatedAt:      q.UpdatedAt,
	}
}

func FromModels(rows []models.Question) []QuestionDTO {
	out := make([]QuestionDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out
}
