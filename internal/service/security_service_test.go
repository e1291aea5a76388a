package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/senator-investech/access-api/internal/models"
)

type securityStoreMock struct {
	history     []models.PasswordHistoryEntry
	incidents   []models.SecurityIncident
	failedCount int
	total       int
}

func (m *securityStoreMock) AddPasswordHistory(ctx context.Context, entry *models.PasswordHistoryEntry) error {
	m.history = append(m.history, *entry)
	return nil
}

func (m *securityStoreMock) ListPasswordHistory(ctx context.Context, userID string, limit int) ([]models.PasswordHistoryEntry, error) {
	return m.history, nil
}

func (m *securityStoreMock) CreateIncident(ctx context.Context, incident *models.SecurityIncident) error {
	m.incidents = append(m.incidents, *incident)
	return nil
}

func (m *securityStoreMock) ListIncidents(ctx context.Context, filter models.IncidentFilter) ([]models.SecurityIncident, int, error) {
	return m.incidents, m.total, nil
}

func (m *securityStoreMock) CountRecentFailedLogins(ctx context.Context, email string, since time.Time) (int, error) {
	return m.failedCount, nil
}

type securitySettingsMock struct {
	settings *models.SecuritySettings
	saved    interface{}
	savedBy  string
}

func (m *securitySettingsMock) Get(ctx context.Context, key string, dest interface{}) error {
	if m.settings == nil {
		return sql.ErrNoRows
	}
	if s, ok := dest.(*models.SecuritySettings); ok {
		*s = *m.settings
	}
	return nil
}

func (m *securitySettingsMock) Save(ctx context.Context, key string, value interface{}, updatedBy string) error {
	m.saved = value
	m.savedBy = updatedBy
	return nil
}

func newSecurityFixture(store *securityStoreMock, settings *securitySettingsMock) *SecurityService {
	return NewSecurityService(store, settings, nil, models.DefaultSecuritySettings(8, 5))
}

func TestValidateNewPasswordPolicy(t *testing.T) {
	svc := newSecurityFixture(&securityStoreMock{}, &securitySettingsMock{})

	cases := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"too short", "Ab1", true},
		{"no uppercase", "longenough1", true},
		{"no lowercase", "LONGENOUGH1", true},
		{"no digit", "LongEnough", true},
		{"acceptable", "LongEnough1", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.ValidateNewPassword(context.Background(), "user-1", tc.password)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateNewPasswordRejectsReuse(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("LongEnough1"), bcrypt.MinCost)
	require.NoError(t, err)
	store := &securityStoreMock{history: []models.PasswordHistoryEntry{
		{UserID: "user-1", PasswordHash: string(hash)},
	}}
	svc := newSecurityFixture(store, &securitySettingsMock{})

	err = svc.ValidateNewPassword(context.Background(), "user-1", "LongEnough1")
	require.Error(t, err)

	assert.NoError(t, svc.ValidateNewPassword(context.Background(), "user-1", "Different2pass"))
}

func TestUpdateSettingsRejectsShortMinLength(t *testing.T) {
	settings := &securitySettingsMock{}
	svc := newSecurityFixture(&securityStoreMock{}, settings)

	_, err := svc.UpdateSettings(context.Background(), models.SecuritySettings{
		PasswordPolicy: models.PasswordPolicy{MinLength: 4},
	}, "admin")
	require.Error(t, err)
	assert.Nil(t, settings.saved)
}

func TestUpdateSettingsBackfillsLockoutDefaults(t *testing.T) {
	settings := &securitySettingsMock{}
	svc := newSecurityFixture(&securityStoreMock{}, settings)

	updated, err := svc.UpdateSettings(context.Background(), models.SecuritySettings{
		PasswordPolicy: models.PasswordPolicy{MinLength: 10},
	}, "admin")
	require.NoError(t, err)
	assert.Equal(t, 5, updated.MaxLoginAttempts)
	assert.Equal(t, 15, updated.LockoutDurationMin)
	assert.Equal(t, "admin", settings.savedBy)
}

func TestRecordFailedLoginEscalatesToLockout(t *testing.T) {
	store := &securityStoreMock{failedCount: 5}
	svc := newSecurityFixture(store, &securitySettingsMock{})

	require.NoError(t, svc.RecordFailedLogin(context.Background(), "ops@example.com", "10.0.0.1"))
	require.Len(t, store.incidents, 2)
	assert.Equal(t, models.IncidentFailedLogin, store.incidents[0].Type)
	assert.Equal(t, models.IncidentAccountLocked, store.incidents[1].Type)
	assert.Equal(t, string(models.SeverityError), store.incidents[1].Severity)
}

func TestRecordFailedLoginBelowThreshold(t *testing.T) {
	store := &securityStoreMock{failedCount: 2}
	svc := newSecurityFixture(store, &securitySettingsMock{})

	require.NoError(t, svc.RecordFailedLogin(context.Background(), "ops@example.com", "10.0.0.1"))
	require.Len(t, store.incidents, 1)
	assert.Equal(t, models.IncidentFailedLogin, store.incidents[0].Type)
}

func TestIsLockedOut(t *testing.T) {
	svc := newSecurityFixture(&securityStoreMock{failedCount: 5}, &securitySettingsMock{})
	locked, err := svc.IsLockedOut(context.Background(), "ops@example.com")
	require.NoError(t, err)
	assert.True(t, locked)

	svc = newSecurityFixture(&securityStoreMock{failedCount: 1}, &securitySettingsMock{})
	locked, err = svc.IsLockedOut(context.Background(), "ops@example.com")
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestRecordPasswordChangeArchivesHash(t *testing.T) {
	store := &securityStoreMock{}
	svc := newSecurityFixture(store, &securitySettingsMock{})

	require.NoError(t, svc.RecordPasswordChange(context.Background(), "user-1", "$2a$10$hash", "10.0.0.1"))
	require.Len(t, store.history, 1)
	assert.Equal(t, "user-1", store.history[0].UserID)
	require.Len(t, store.incidents, 1)
	assert.Equal(t, models.IncidentPasswordChange, store.incidents[0].Type)
}
