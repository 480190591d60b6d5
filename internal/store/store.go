package store

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Store persists users, companies and everything hanging off them
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// New creates a store on top of an open database
func New(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// DB exposes the underlying connection for health checks
func (s *Store) DB() *gorm.DB {
	return s.db
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
