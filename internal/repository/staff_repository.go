package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Logan1xl/suivie-academique/internal/models"
)

const staffColumns = "code_staff, name, login, password_hash, sex, phone, role, created_at, updated_at"

// StaffRepository manages persistence for staff members and their sessions.
type StaffRepository struct {
	db *sqlx.DB
}

// NewStaffRepository constructs a StaffRepository.
func NewStaffRepository(db *sqlx.DB) *StaffRepository {
	return &StaffRepository{db: db}
}

// List returns staff matching filters along with total count.
func (r *StaffRepository) List(ctx context.Context, filter models.StaffFilter) ([]models.Staff, int, error) {
	base := "FROM staff WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Role != nil {
		conditions = append(conditions, fmt.Sprintf("role = $%d", len(args)+1))
		args = append(args, *filter.Role)
	}
	if filter.Sex != "" {
		conditions = append(conditions, fmt.Sprintf("sex = $%d", len(args)+1))
		args = append(args, filter.Sex)
	}
	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(login) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, search)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	allowedSorts := map[string]string{
		"name":       "name",
		"login":      "login",
		"code":       "code_staff",
		"created_at": "created_at",
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "created_at"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", staffColumns, base, column, order, size, offset)
	var staff []models.Staff
	if err := r.db.SelectContext(ctx, &staff, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list staff: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count staff: %w", err)
	}

	return staff, total, nil
}

// FindByCode fetches a staff member by business code.
func (r *StaffRepository) FindByCode(ctx context.Context, code string) (*models.Staff, error) {
	query := fmt.Sprintf("SELECT %s FROM staff WHERE code_staff = $1", staffColumns)
	var staff models.Staff
	if err := r.db.GetContext(ctx, &staff, query, code); err != nil {
		return nil, err
	}
	return &staff, nil
}

// FindByLogin fetches a staff member by login.
func (r *StaffRepository) FindByLogin(ctx context.Context, login string) (*models.Staff, error) {
	query := fmt.Sprintf("SELECT %s FROM staff WHERE LOWER(login) = LOWER($1)", staffColumns)
	var staff models.Staff
	if err := r.db.GetContext(ctx, &staff, query, login); err != nil {
		return nil, err
	}
	return &staff, nil
}

// FindByPhone fetches a staff member by phone number.
func (r *StaffRepository) FindByPhone(ctx context.Context, phone string) (*models.Staff, error) {
	query := fmt.Sprintf("SELECT %s FROM staff WHERE phone = $1", staffColumns)
	var staff models.Staff
	if err := r.db.GetContext(ctx, &staff, query, phone); err != nil {
		return nil, err
	}
	return &staff, nil
}

// ExistsByCode reports whether a staff code is already taken.
func (r *StaffRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	const query = `SELECT 1 FROM staff WHERE code_staff = $1 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, code); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check staff code: %w", err)
	}
	return true, nil
}

// ExistsByLogin checks if another staff member uses the same login.
func (r *StaffRepository) ExistsByLogin(ctx context.Context, login, excludeCode string) (bool, error) {
	query := "SELECT 1 FROM staff WHERE LOWER(login) = LOWER($1)"
	args := []interface{}{login}
	if excludeCode != "" {
		query += " AND code_staff <> $2"
		args = append(args, excludeCode)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check staff login: %w", err)
	}
	return true, nil
}

// ExistsByPhone checks if another staff member uses the same phone number.
func (r *StaffRepository) ExistsByPhone(ctx context.Context, phone, excludeCode string) (bool, error) {
	query := "SELECT 1 FROM staff WHERE phone = $1"
	args := []interface{}{phone}
	if excludeCode != "" {
		query += " AND code_staff <> $2"
		args = append(args, excludeCode)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check staff phone: %w", err)
	}
	return true, nil
}

// Create inserts a new staff record.
func (r *StaffRepository) Create(ctx context.Context, staff *models.Staff) error {
	now := time.Now().UTC()
	if staff.CreatedAt.IsZero() {
		staff.CreatedAt = now
	}
	staff.UpdatedAt = now

	const query = `INSERT INTO staff (code_staff, name, login, password_hash, sex, phone, role, created_at, updated_at)
		VALUES (:code_staff, :name, :login, :password_hash, :sex, :phone, :role, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, staff); err != nil {
		return fmt.Errorf("create staff: %w", err)
	}
	return nil
}

// Update modifies the mutable fields of a staff record. The password hash is
// intentionally left untouched.
func (r *StaffRepository) Update(ctx context.Context, staff *models.Staff) error {
	staff.UpdatedAt = time.Now().UTC()
	const query = `UPDATE staff SET name = :name, login = :login, sex = :sex, phone = :phone, role = :role, updated_at = :updated_at WHERE code_staff = :code_staff`
	if _, err := r.db.NamedExecContext(ctx, query, staff); err != nil {
		return fmt.Errorf("update staff: %w", err)
	}
	return nil
}

// UpdatePassword replaces the stored password hash.
func (r *StaffRepository) UpdatePassword(ctx context.Context, code, passwordHash string, updatedAt time.Time) error {
	const query = `UPDATE staff SET password_hash = $1, updated_at = $2 WHERE code_staff = $3`
	if _, err := r.db.ExecContext(ctx, query, passwordHash, updatedAt, code); err != nil {
		return fmt.Errorf("update staff password: %w", err)
	}
	return nil
}

// Delete removes a staff record. Owned programmations cascade at the store.
func (r *StaffRepository) Delete(ctx context.Context, code string) error {
	const query = `DELETE FROM staff WHERE code_staff = $1`
	result, err := r.db.ExecContext(ctx, query, code)
	if err != nil {
		return fmt.Errorf("delete staff: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deleted staff rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountByRole returns the number of staff holding a role.
func (r *StaffRepository) CountByRole(ctx context.Context, role models.StaffRole) (int, error) {
	const query = `SELECT COUNT(*) FROM staff WHERE role = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, role); err != nil {
		return 0, fmt.Errorf("count staff by role: %w", err)
	}
	return count, nil
}

// CountBySex returns the number of staff of a given sex.
func (r *StaffRepository) CountBySex(ctx context.Context, sex string) (int, error) {
	const query = `SELECT COUNT(*) FROM staff WHERE sex = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, sex); err != nil {
		return 0, fmt.Errorf("count staff by sex: %w", err)
	}
	return count, nil
}

// CreateRefreshToken stores a new refresh token.
func (r *StaffRepository) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO refresh_tokens (id, staff_code, token, expires_at, created_at, revoked, ip_address, user_agent)
		VALUES (:id, :staff_code, :token, :expires_at, :created_at, :revoked, :ip_address, :user_agent)`
	if _, err := r.db.NamedExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

// FindRefreshToken loads a refresh token by its opaque value.
func (r *StaffRepository) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	const query = `SELECT id, staff_code, token, expires_at, created_at, revoked, revoked_at, ip_address, user_agent FROM refresh_tokens WHERE token = $1`
	var stored models.RefreshToken
	if err := r.db.GetContext(ctx, &stored, query, token); err != nil {
		return nil, err
	}
	return &stored, nil
}

// RevokeRefreshToken marks a single refresh token as revoked.
func (r *StaffRepository) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	const query = `UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, revokedAt); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// RevokeStaffRefreshTokens revokes every live token owned by a staff member.
func (r *StaffRepository) RevokeStaffRefreshTokens(ctx context.Context, staffCode string) error {
	const query = `UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE staff_code = $1 AND revoked = FALSE`
	if _, err := r.db.ExecContext(ctx, query, staffCode, time.Now().UTC()); err != nil {
		return fmt.Errorf("revoke staff refresh tokens: %w", err)
	}
	return nil
}

// CreateAuditLog appends an audit trail entry.
func (r *StaffRepository) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_logs (staff_code, action, resource, resource_id, detail, ip_address, user_agent, created_at)
		VALUES (:staff_code, :action, :resource, :resource_id, :detail, :ip_address, :user_agent, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}
