package models

import "time"

// Person types resolved from the badge directory.
const (
	PersonTypeEmployee = "employee"
	PersonTypeVisitor  = "visitor"
	PersonTypeUnknown  = "unknown"
)

// Employee is a badge holder from the HR import.
type Employee struct {
	ID         int64     `db:"id" json:"id"`
	Badge      string    `db:"badge_number" json:"badge"`
	FirstName  string    `db:"first_name" json:"first_name"`
	LastName   string    `db:"last_name" json:"last_name"`
	Department string    `db:"department" json:"department"`
	Email      *string   `db:"email" json:"email,omitempty"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Visitor is a temporary badge holder.
type Visitor struct {
	ID        int64     `db:"id" json:"id"`
	Badge     string    `db:"badge_number" json:"badge"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	Company   *string   `db:"company" json:"company,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// EmployeeFilter captures filtering criteria for listing badge holders.
type EmployeeFilter struct {
	Department string
	Search     string
	Active     *bool
	Page       int
	PageSize   int
}
