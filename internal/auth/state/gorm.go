package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pysugar/drive-nexus/internal/db/models"
	"gorm.io/gorm"
)

// GormStore keeps state entries in the oauth_states table.
type GormStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db, now: time.Now}
}

func (s *GormStore) Save(ctx context.Context, e Entry) error {
	row := models.OAuthState{
		State:       e.State,
		UserID:      e.UserID,
		RedirectURI: e.RedirectURI,
		ExpiresAt:   e.ExpiresAt.UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("save oauth state: %w", err)
	}
	return nil
}

func (s *GormStore) Consume(ctx context.Context, state string) (Entry, error) {
	var row models.OAuthState
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("state = ?", state).Take(&row).Error; err != nil {
			return err
		}
		res := tx.Where("state = ?", state).Delete(&models.OAuthState{})
		if res.Error != nil {
			return res.Error
		}
		// A concurrent consumer got there first.
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("consume oauth state: %w", err)
	}

	if !row.ExpiresAt.After(s.now()) {
		return Entry{}, ErrNotFound
	}
	return Entry{
		State:       row.State,
		UserID:      row.UserID,
		RedirectURI: row.RedirectURI,
		ExpiresAt:   row.ExpiresAt,
	}, nil
}

// PurgeExpired removes abandoned entries and returns how many were deleted.
func (s *GormStore) PurgeExpired(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at <= ?", s.now().UTC()).Delete(&models.OAuthState{})
	if res.Error != nil {
		return 0, fmt.Errorf("purge oauth states: %w", res.Error)
	}
	return res.RowsAffected, nil
}
