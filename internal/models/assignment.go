package models

import "time"

// AssignmentKey is the composite identity of an assignment. Two assignments
// with equal course and staff codes are the same assignment.
type AssignmentKey struct {
	CourseCode string `json:"course_code"`
	StaffCode  string `json:"staff_code"`
}

// Assignment records that a staff member is assigned to a course.
type Assignment struct {
	CourseCode string    `db:"code_course" json:"course_code"`
	StaffCode  string    `db:"code_staff" json:"staff_code"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Key returns the composite identity of the assignment.
func (a Assignment) Key() AssignmentKey {
	return AssignmentKey{CourseCode: a.CourseCode, StaffCode: a.StaffCode}
}

// AssignmentDetail is an assignment hydrated with display names.
type AssignmentDetail struct {
	Assignment
	CourseLabel string `db:"course_label" json:"course_label"`
	StaffName   string `db:"staff_name" json:"staff_name"`
}
