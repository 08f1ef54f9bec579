package models

import "time"

// Audit actions recorded for traceability.
const (
	AuditActionLogin    = "LOGIN"
	AuditActionLogout   = "LOGOUT"
	AuditActionRegister = "REGISTER"
	AuditActionCreate   = "CREATE"
	AuditActionUpdate   = "UPDATE"
	AuditActionValidate = "VALIDATE"
	AuditActionDelete   = "DELETE"
)

// AuditLog records a state-changing operation and the actor that performed it.
type AuditLog struct {
	ID         int64     `db:"id" json:"id"`
	StaffCode  *string   `db:"staff_code" json:"staff_code,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	Detail     []byte    `db:"detail" json:"detail,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address,omitempty"`
	UserAgent  string    `db:"user_agent" json:"user_agent,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
