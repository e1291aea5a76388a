package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/senator-investech/access-api/internal/models"
	"github.com/senator-investech/access-api/internal/repository"
	appErrors "github.com/senator-investech/access-api/pkg/errors"
)

type securityStore interface {
	AddPasswordHistory(ctx context.Context, entry *models.PasswordHistoryEntry) error
	ListPasswordHistory(ctx context.Context, userID string, limit int) ([]models.PasswordHistoryEntry, error)
	CreateIncident(ctx context.Context, incident *models.SecurityIncident) error
	ListIncidents(ctx context.Context, filter models.IncidentFilter) ([]models.SecurityIncident, int, error)
	CountRecentFailedLogins(ctx context.Context, email string, since time.Time) (int, error)
}

type securitySettingsRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Save(ctx context.Context, key string, value interface{}, updatedBy string) error
}

// SecurityService enforces the password policy and manages the incident log.
type SecurityService struct {
	store    securityStore
	settings securitySettingsRepository
	logger   *zap.Logger
	defaults models.SecuritySettings
}

// NewSecurityService constructs a SecurityService.
func NewSecurityService(store securityStore, settings securitySettingsRepository, logger *zap.Logger, defaults models.SecuritySettings) *SecurityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SecurityService{store: store, settings: settings, logger: logger, defaults: defaults}
}

// Settings returns the stored security settings, falling back to defaults.
func (s *SecurityService) Settings(ctx context.Context) (models.SecuritySettings, error) {
	var settings models.SecuritySettings
	if err := s.settings.Get(ctx, repository.SettingsKeySecurity, &settings); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.defaults, nil
		}
		return models.SecuritySettings{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load security settings")
	}
	return settings, nil
}

// UpdateSettings stores new security settings.
func (s *SecurityService) UpdateSettings(ctx context.Context, settings models.SecuritySettings, updatedBy string) (models.SecuritySettings, error) {
	if settings.PasswordPolicy.MinLength < 6 {
		return models.SecuritySettings{}, appErrors.Clone(appErrors.ErrValidation, "minimum password length cannot be below 6")
	}
	if settings.MaxLoginAttempts <= 0 {
		settings.MaxLoginAttempts = s.defaults.MaxLoginAttempts
	}
	if settings.LockoutDurationMin <= 0 {
		settings.LockoutDurationMin = s.defaults.LockoutDurationMin
	}
	if err := s.settings.Save(ctx, repository.SettingsKeySecurity, settings, updatedBy); err != nil {
		return models.SecuritySettings{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save security settings")
	}
	return settings, nil
}

// ValidateNewPassword checks a candidate password against the policy and the
// user's recent password history.
func (s *SecurityService) ValidateNewPassword(ctx context.Context, userID, password string) error {
	settings, err := s.Settings(ctx)
	if err != nil {
		return err
	}
	policy := settings.PasswordPolicy

	if len(password) < policy.MinLength {
		return appErrors.Clone(appErrors.ErrWeakPassword, fmt.Sprintf("password must be at least %d characters", policy.MinLength))
	}
	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsNumber(r):
			hasNumber = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}
	if policy.RequireUppercase && !hasUpper {
		return appErrors.Clone(appErrors.ErrWeakPassword, "password must contain an uppercase letter")
	}
	if policy.RequireLowercase && !hasLower {
		return appErrors.Clone(appErrors.ErrWeakPassword, "password must contain a lowercase letter")
	}
	if policy.RequireNumbers && !hasNumber {
		return appErrors.Clone(appErrors.ErrWeakPassword, "password must contain a digit")
	}
	if policy.RequireSpecial && !hasSpecial {
		return appErrors.Clone(appErrors.ErrWeakPassword, "password must contain a special character")
	}

	if policy.PreventReuse > 0 {
		history, err := s.store.ListPasswordHistory(ctx, userID, policy.PreventReuse)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check password history")
		}
		for _, entry := range history {
			if bcrypt.CompareHashAndPassword([]byte(entry.PasswordHash), []byte(password)) == nil {
				return appErrors.Clone(appErrors.ErrWeakPassword, fmt.Sprintf("password was used within the last %d changes", policy.PreventReuse))
			}
		}
	}
	return nil
}

// RecordPasswordChange archives the new hash and logs the change.
func (s *SecurityService) RecordPasswordChange(ctx context.Context, userID, passwordHash, ip string) error {
	if err := s.store.AddPasswordHistory(ctx, &models.PasswordHistoryEntry{UserID: userID, PasswordHash: passwordHash}); err != nil {
		return err
	}
	return s.store.CreateIncident(ctx, &models.SecurityIncident{
		Type:        models.IncidentPasswordChange,
		Description: "password changed by owner",
		Severity:    string(models.SeverityWarning),
		UserID:      &userID,
		IPAddress:   ip,
	})
}

// RecordPasswordReset archives the new hash and logs an admin reset.
func (s *SecurityService) RecordPasswordReset(ctx context.Context, userID, passwordHash, ip string) error {
	if err := s.store.AddPasswordHistory(ctx, &models.PasswordHistoryEntry{UserID: userID, PasswordHash: passwordHash}); err != nil {
		return err
	}
	return s.store.CreateIncident(ctx, &models.SecurityIncident{
		Type:        models.IncidentPasswordReset,
		Description: "password reset by administrator",
		Severity:    string(models.SeverityWarning),
		UserID:      &userID,
		IPAddress:   ip,
	})
}

// RecordFailedLogin logs a failed attempt and escalates to a lockout
// incident when the attempt threshold is reached.
func (s *SecurityService) RecordFailedLogin(ctx context.Context, email, ip string) error {
	if err := s.store.CreateIncident(ctx, &models.SecurityIncident{
		Type:        models.IncidentFailedLogin,
		Description: "failed login attempt",
		Severity:    string(models.SeverityWarning),
		Email:       &email,
		IPAddress:   ip,
	}); err != nil {
		return err
	}

	settings, err := s.Settings(ctx)
	if err != nil {
		return err
	}
	window := time.Duration(settings.LockoutDurationMin) * time.Minute
	count, err := s.store.CountRecentFailedLogins(ctx, email, time.Now().UTC().Add(-window))
	if err != nil {
		return err
	}
	if count == settings.MaxLoginAttempts {
		return s.store.CreateIncident(ctx, &models.SecurityIncident{
			Type:        models.IncidentAccountLocked,
			Description: fmt.Sprintf("account locked after %d failed attempts", count),
			Severity:    string(models.SeverityError),
			Email:       &email,
			IPAddress:   ip,
		})
	}
	return nil
}

// IsLockedOut reports whether the email has exceeded the failed login
// threshold within the lockout window.
func (s *SecurityService) IsLockedOut(ctx context.Context, email string) (bool, error) {
	settings, err := s.Settings(ctx)
	if err != nil {
		return false, err
	}
	window := time.Duration(settings.LockoutDurationMin) * time.Minute
	count, err := s.store.CountRecentFailedLogins(ctx, email, time.Now().UTC().Add(-window))
	if err != nil {
		return false, err
	}
	return count >= settings.MaxLoginAttempts, nil
}

// Incidents lists entries from the incident log.
func (s *SecurityService) Incidents(ctx context.Context, filter models.IncidentFilter) ([]models.SecurityIncident, int, error) {
	incidents, total, err := s.store.ListIncidents(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list incidents")
	}
	return incidents, total, nil
}
