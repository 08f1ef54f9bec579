package models

import "time"

// StaffRole represents the closed set of staff roles.
type StaffRole string

const (
	RoleTeacher           StaffRole = "TEACHER"
	RoleAcademicManager   StaffRole = "ACADEMIC_MANAGER"
	RoleDisciplineManager StaffRole = "DISCIPLINE_MANAGER"
	RoleStaffManager      StaffRole = "STAFF_MANAGER"
)

// CodePrefix returns the business-key prefix used when generating staff codes.
func (r StaffRole) CodePrefix() string {
	switch r {
	case RoleTeacher:
		return "ENS"
	case RoleAcademicManager:
		return "RA"
	case RoleDisciplineManager:
		return "RD"
	case RoleStaffManager:
		return "RP"
	default:
		return "XX"
	}
}

// ParseStaffRole validates a textual role against the closed enum set.
func ParseStaffRole(raw string) (StaffRole, bool) {
	switch StaffRole(raw) {
	case RoleTeacher, RoleAcademicManager, RoleDisciplineManager, RoleStaffManager:
		return StaffRole(raw), true
	default:
		return "", false
	}
}

// Staff represents a teaching or administrative staff member. The code is the
// business key, generated at registration with a role-dependent prefix.
type Staff struct {
	Code         string    `db:"code_staff" json:"code"`
	Name         string    `db:"name" json:"name"`
	Login        string    `db:"login" json:"login"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Sex          string    `db:"sex" json:"sex"`
	Phone        string    `db:"phone" json:"phone"`
	Role         StaffRole `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// StaffFilter captures filtering options for listing staff.
type StaffFilter struct {
	Role      *StaffRole
	Sex       string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
