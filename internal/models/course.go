package models

import "time"

// Course represents a taught course. Credit and hour counts are free-form
// text so values like "30h CM" can be stored as entered.
type Course struct {
	Code        string    `db:"code_course" json:"code"`
	Label       string    `db:"label" json:"label"`
	Description string    `db:"description" json:"description"`
	CreditCount string    `db:"credit_count" json:"credit_count"`
	HourCount   string    `db:"hour_count" json:"hour_count"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
