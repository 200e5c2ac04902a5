package catalog

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func (c *Course) BeforeCreate(*gorm.DB) error   { ensureID(&c.ID); return nil }
func (t *Test) BeforeCreate(*gorm.DB) error     { ensureID(&t.ID); return nil }
func (q *Question) BeforeCreate(*gorm.DB) error { ensureID(&q.ID); return nil }
func (c *Choice) BeforeCreate(*gorm.DB) error   { ensureID(&c.ID); return nil }

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
