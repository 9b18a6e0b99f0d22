package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pysugar/drive-nexus/internal/db/models"
	"github.com/pysugar/drive-nexus/internal/secret"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when a user has no stored connection.
var ErrNotFound = errors.New("drive connection not found")

// ConnectionStore persists Connection Credentials, one row per user.
// Every operation touches exactly one row and relies on row-level atomicity.
type ConnectionStore struct {
	db     *gorm.DB
	sealer secret.Sealer
}

// NewConnectionStore creates a store. A nil sealer stores tokens in plaintext.
func NewConnectionStore(db *gorm.DB, sealer secret.Sealer) *ConnectionStore {
	if sealer == nil {
		sealer = secret.Plaintext{}
	}
	return &ConnectionStore{db: db, sealer: sealer}
}

// Get loads and decrypts the credential for userID.
func (s *ConnectionStore) Get(ctx context.Context, userID string) (*models.Credential, error) {
	var row models.DriveConnection
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load drive connection: %w", err)
	}
	return s.toCredential(&row)
}

// Upsert creates or replaces the credential for cred.UserID. connected_at is kept
// from the first insert, and an empty cred.Email keeps the stored email.
func (s *ConnectionStore) Upsert(ctx context.Context, cred models.Credential) error {
	accessToken, err := s.sealer.Seal(cred.AccessToken)
	if err != nil {
		return fmt.Errorf("seal access token: %w", err)
	}
	refreshToken, err := s.sealer.Seal(cred.RefreshToken)
	if err != nil {
		return fmt.Errorf("seal refresh token: %w", err)
	}

	row := models.DriveConnection{
		UserID:         cred.UserID,
		AccessToken:    accessToken,
		RefreshToken:   refreshToken,
		TokenExpiresAt: cred.TokenExpiresAt.UTC(),
	}
	updates := []string{"access_token", "refresh_token", "token_expires_at", "updated_at"}
	if cred.Email != "" {
		email := cred.Email
		row.Email = &email
		updates = append(updates, "email")
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns(updates),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("upsert drive connection: %w", err)
	}
	return nil
}

// UpdateAccessToken rotates the access token in place. The refresh token is untouched.
// Returns ErrNotFound if the row disappeared in the meantime.
func (s *ConnectionStore) UpdateAccessToken(ctx context.Context, userID, accessToken string, expiresAt time.Time) error {
	sealed, err := s.sealer.Seal(accessToken)
	if err != nil {
		return fmt.Errorf("seal access token: %w", err)
	}

	res := s.db.WithContext(ctx).Model(&models.DriveConnection{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"access_token":     sealed,
			"token_expires_at": expiresAt.UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("update access token: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ExpireAccessToken marks the cached access token unusable so the next lookup refreshes it.
func (s *ConnectionStore) ExpireAccessToken(ctx context.Context, userID string, at time.Time) error {
	res := s.db.WithContext(ctx).Model(&models.DriveConnection{}).
		Where("user_id = ?", userID).
		Update("token_expires_at", at.UTC())
	if res.Error != nil {
		return fmt.Errorf("expire access token: %w", res.Error)
	}
	return nil
}

// Delete removes the credential. Deleting a missing row succeeds.
func (s *ConnectionStore) Delete(ctx context.Context, userID string) error {
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.DriveConnection{}).Error
	if err != nil {
		return fmt.Errorf("delete drive connection: %w", err)
	}
	return nil
}

// Status reads connection metadata without touching the tokens.
func (s *ConnectionStore) Status(ctx context.Context, userID string) (models.ConnectionStatus, error) {
	var row models.DriveConnection
	err := s.db.WithContext(ctx).
		Select("user_id", "email", "connected_at").
		Where("user_id = ?", userID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ConnectionStatus{Connected: false}, nil
	}
	if err != nil {
		return models.ConnectionStatus{}, fmt.Errorf("load connection status: %w", err)
	}

	status := models.ConnectionStatus{Connected: true}
	if row.Email != nil {
		status.Email = *row.Email
	}
	if !row.ConnectedAt.IsZero() {
		connectedAt := row.ConnectedAt
		status.ConnectedAt = &connectedAt
	}
	return status, nil
}

func (s *ConnectionStore) toCredential(row *models.DriveConnection) (*models.Credential, error) {
	accessToken, err := s.sealer.Open(row.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("open access token: %w", err)
	}
	refreshToken, err := s.sealer.Open(row.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("open refresh token: %w", err)
	}

	cred := &models.Credential{
		UserID:         row.UserID,
		AccessToken:    accessToken,
		RefreshToken:   refreshToken,
		TokenExpiresAt: row.TokenExpiresAt,
		ConnectedAt:    row.ConnectedAt,
	}
	if row.Email != nil {
		cred.Email = *row.Email
	}
	return cred, nil
}
