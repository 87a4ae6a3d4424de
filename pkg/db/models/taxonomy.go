package models

import (
	"time"

	"github.com/google/uuid"
)

// Board is the top of the curriculum hierarchy (CBSE, ICSE, a state board).
type Board struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string    `gorm:"column:name;not null;uniqueIndex"`
	Code        string    `gorm:"column:code;not null"`
	Description string    `gorm:"column:description;not null;default:''"`
	IsActive    bool      `gorm:"column:is_active;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Board) TableName() string { return "boards" }

type Subject struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BoardID   uuid.UUID `gorm:"column:board_id;type:uuid;not null"`
	Name      string    `gorm:"column:name;not null"`
	Grade     int       `gorm:"column:grade;not null"`
	IsActive  bool      `gorm:"column:is_active;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Subject) TableName() string { return "subjects" }

type Topic struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SubjectID   uuid.UUID `gorm:"column:subject_id;type:uuid;not null"`
	Name        string    `gorm:"column:name;not null"`
	Description string    `gorm:"column:description;not null;default:''"`
	IsActive    bool      `gorm:"column:is_active;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Topic) TableName() string { return "topics" }
