package models

import "time"

// PasswordPolicy holds the configurable password rules.
type PasswordPolicy struct {
	MinLength        int  `json:"minLength"`
	RequireUppercase bool `json:"requireUppercase"`
	RequireLowercase bool `json:"requireLowercase"`
	RequireNumbers   bool `json:"requireNumbers"`
	RequireSpecial   bool `json:"requireSpecialChars"`
	PreventReuse     int  `json:"preventReuse"`
	ExpiryDays       int  `json:"expiryDays"`
}

// SecuritySettings is the admin-editable security configuration persisted in
// app_settings.
type SecuritySettings struct {
	PasswordPolicy     PasswordPolicy `json:"passwordPolicy"`
	MaxLoginAttempts   int            `json:"maxLoginAttempts"`
	LockoutDurationMin int            `json:"lockoutDurationMinutes"`
}

// DefaultSecuritySettings returns the policy applied when no settings row exists.
func DefaultSecuritySettings(minLength, preventReuse int) SecuritySettings {
	if minLength <= 0 {
		minLength = 8
	}
	if preventReuse <= 0 {
		preventReuse = 5
	}
	return SecuritySettings{
		PasswordPolicy: PasswordPolicy{
			MinLength:        minLength,
			RequireUppercase: true,
			RequireLowercase: true,
			RequireNumbers:   true,
			RequireSpecial:   false,
			PreventReuse:     preventReuse,
			ExpiryDays:       90,
		},
		MaxLoginAttempts:   5,
		LockoutDurationMin: 15,
	}
}

// Security incident types recorded by the incident log.
const (
	IncidentFailedLogin    = "failed_login"
	IncidentPasswordChange = "password_change"
	IncidentPasswordReset  = "password_reset"
	IncidentAccountLocked  = "account_locked"
)

// SecurityIncident is an entry in the security incident log.
type SecurityIncident struct {
	ID          string    `db:"id" json:"id"`
	Type        string    `db:"type" json:"type"`
	Description string    `db:"description" json:"description"`
	Severity    string    `db:"severity" json:"severity"`
	UserID      *string   `db:"user_id" json:"user_id,omitempty"`
	Email       *string   `db:"email" json:"email,omitempty"`
	IPAddress   string    `db:"ip_address" json:"ip_address"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// IncidentFilter scopes incident listings.
type IncidentFilter struct {
	Type     string
	UserID   string
	Page     int
	PageSize int
}

// PasswordHistoryEntry keeps previous password hashes for reuse prevention.
type PasswordHistoryEntry struct {
	ID           string    `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"user_id"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
