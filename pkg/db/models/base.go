package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// BeforeCreate hooks assign ids client-side so inserts do not depend on
// gen_random_uuid being available.

func (u *User) BeforeCreate(*gorm.DB) error              { ensureID(&u.ID); return nil }
func (e *LedgerEntry) BeforeCreate(*gorm.DB) error       { ensureID(&e.ID); return nil }
func (g *GenerationRequest) BeforeCreate(*gorm.DB) error { ensureID(&g.ID); return nil }
func (q *Question) BeforeCreate(*gorm.DB) error          { ensureID(&q.ID); return nil }
func (b *Board) BeforeCreate(*gorm.DB) error             { ensureID(&b.ID); return nil }
func (s *Subject) BeforeCreate(*gorm.DB) error           { ensureID(&s.ID); return nil }
func (t *Topic) BeforeCreate(*gorm.DB) error             { ensureID(&t.ID); return nil }
func (r *AIRule) BeforeCreate(*gorm.DB) error            { ensureID(&r.ID); return nil }
func (s *BloomSample) BeforeCreate(*gorm.DB) error       { ensureID(&s.ID); return nil }
