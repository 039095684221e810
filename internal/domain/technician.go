package domain

import "time"

// Technician is a qualified worker (technicians table).
type Technician struct {
	TechnicianID   string    `db:"technician_id"`
	FullName       string    `db:"full_name"`
	Email          string    `db:"email"`           // NOT NULL, UNIQUE
	TechnicianType string    `db:"technician_type"` // qualification tag, matched against Test.TechnicianType
	IsActive       bool      `db:"is_active"`
	CreatedAt      time.Time `db:"created_at"`
}

// TechnicianWorkload pairs a technician with a live assignment count
// (status != SUBMITTED) taken from the same read as the eligibility filter.
type TechnicianWorkload struct {
	Technician Technician
	Workload   int
}
