package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Keys under which configuration documents live in the app_settings table.
const (
	SettingsKeyAttendance = "attendance_params"
	SettingsKeySecurity   = "security_settings"
)

// SettingsRepository stores configuration documents as JSONB rows keyed by name.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository constructs a SettingsRepository.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get loads the document stored under key into dest. Returns sql.ErrNoRows
// when the key has never been written.
func (r *SettingsRepository) Get(ctx context.Context, key string, dest interface{}) error {
	const query = `SELECT value FROM app_settings WHERE key = $1 LIMIT 1`
	var raw []byte
	if err := r.db.GetContext(ctx, &raw, query, key); err != nil {
		if err == sql.ErrNoRows {
			return err
		}
		return fmt.Errorf("get setting %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal setting %s: %w", key, err)
	}
	return nil
}

// Save upserts the document stored under key.
func (r *SettingsRepository) Save(ctx context.Context, key string, value interface{}, updatedBy string) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal setting %s: %w", key, err)
	}
	const query = `INSERT INTO app_settings (key, value, updated_by, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, key, payload, updatedBy, time.Now().UTC()); err != nil {
		return fmt.Errorf("save setting %s: %w", key, err)
	}
	return nil
}
