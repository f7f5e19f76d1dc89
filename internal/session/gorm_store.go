package session

import (
	"context"
	"errors"
	"strings"

	"github.com/Leo3030/roadmap-demo/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore keeps sessions in the sessions table.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore constructs a GormStore.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Load returns the session with id, or ErrNotFound.
func (s *GormStore) Load(ctx context.Context, id string) (*models.Session, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("session: nil db")
	}
	var row models.Session
	errFind := s.db.WithContext(ctx).Where("id = ?", strings.TrimSpace(id)).First(&row).Error
	if errors.Is(errFind, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if errFind != nil {
		return nil, errFind
	}
	return &row, nil
}

// Save inserts or replaces the session.
func (s *GormStore) Save(ctx context.Context, sess *models.Session) error {
	if s == nil || s.db == nil {
		return errors.New("session: nil db")
	}
	if errValidate := validate(sess); errValidate != nil {
		return errValidate
	}
	sess.Shop = strings.ToLower(strings.TrimSpace(sess.Shop))
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"shop", "access_token", "scope", "is_online", "expires_at", "updated_at"}),
	}).Create(sess).Error
}

// Delete removes the session; deleting a missing session is not an error.
func (s *GormStore) Delete(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return errors.New("session: nil db")
	}
	return s.db.WithContext(ctx).Where("id = ?", strings.TrimSpace(id)).Delete(&models.Session{}).Error
}
