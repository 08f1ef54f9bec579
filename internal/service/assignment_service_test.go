package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Logan1xl/suivie-academique/internal/models"
	appErrors "github.com/Logan1xl/suivie-academique/pkg/errors"
)

type mockAssignmentRepo struct {
	assignments map[models.AssignmentKey]models.Assignment
}

func (m *mockAssignmentRepo) Exists(ctx context.Context, key models.AssignmentKey) (bool, error) {
	_, ok := m.assignments[key]
	return ok, nil
}

func (m *mockAssignmentRepo) Create(ctx context.Context, assignment *models.Assignment) error {
	if m.assignments == nil {
		m.assignments = make(map[models.AssignmentKey]models.Assignment)
	}
	m.assignments[assignment.Key()] = *assignment
	return nil
}

func (m *mockAssignmentRepo) Delete(ctx context.Context, key models.AssignmentKey) error {
	if _, ok := m.assignments[key]; !ok {
		return sql.ErrNoRows
	}
	delete(m.assignments, key)
	return nil
}

func (m *mockAssignmentRepo) ListAll(ctx context.Context) ([]models.AssignmentDetail, error) {
	out := make([]models.AssignmentDetail, 0, len(m.assignments))
	for _, a := range m.assignments {
		out = append(out, models.AssignmentDetail{Assignment: a})
	}
	return out, nil
}

func (m *mockAssignmentRepo) ListByStaff(ctx context.Context, staffCode string) ([]models.AssignmentDetail, error) {
	var out []models.AssignmentDetail
	for _, a := range m.assignments {
		if a.StaffCode == staffCode {
			out = append(out, models.AssignmentDetail{Assignment: a})
		}
	}
	return out, nil
}

func (m *mockAssignmentRepo) ListByCourse(ctx context.Context, courseCode string) ([]models.AssignmentDetail, error) {
	var out []models.AssignmentDetail
	for _, a := range m.assignments {
		if a.CourseCode == courseCode {
			out = append(out, models.AssignmentDetail{Assignment: a})
		}
	}
	return out, nil
}

func (m *mockAssignmentRepo) CountByStaff(ctx context.Context, staffCode string) (int, error) {
	list, _ := m.ListByStaff(ctx, staffCode)
	return len(list), nil
}

func (m *mockAssignmentRepo) CountByCourse(ctx context.Context, courseCode string) (int, error) {
	list, _ := m.ListByCourse(ctx, courseCode)
	return len(list), nil
}

func newAssignmentService(repo *mockAssignmentRepo, staff *mockStaffRepo, courses *mockCourseRepo) *AssignmentService {
	return NewAssignmentService(repo, staff, courses, nil, validator.New(), zap.NewNop())
}

func assignmentFixtures() (*mockStaffRepo, *mockCourseRepo) {
	staff := &mockStaffRepo{staff: map[string]models.Staff{"ENS20261234": {Code: "ENS20261234", Name: "Alice"}}}
	courses := &mockCourseRepo{courses: map[string]models.Course{"INF301": {Code: "INF301", Label: "Systemes"}}}
	return staff, courses
}

func TestAssignmentServiceCreate(t *testing.T) {
	staff, courses := assignmentFixtures()
	repo := &mockAssignmentRepo{}
	svc := newAssignmentService(repo, staff, courses)

	assignment, err := svc.Create(context.Background(), "actor", CreateAssignmentRequest{CourseCode: "INF301", StaffCode: "ENS20261234"})
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentKey{CourseCode: "INF301", StaffCode: "ENS20261234"}, assignment.Key())
	assert.Equal(t, 1, len(repo.assignments))
}

func TestAssignmentServiceCreateDuplicatePair(t *testing.T) {
	staff, courses := assignmentFixtures()
	key := models.AssignmentKey{CourseCode: "INF301", StaffCode: "ENS20261234"}
	repo := &mockAssignmentRepo{assignments: map[models.AssignmentKey]models.Assignment{
		key: {CourseCode: key.CourseCode, StaffCode: key.StaffCode},
	}}
	svc := newAssignmentService(repo, staff, courses)

	_, err := svc.Create(context.Background(), "actor", CreateAssignmentRequest{CourseCode: "INF301", StaffCode: "ENS20261234"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAssignmentServiceCreateUnknownCourse(t *testing.T) {
	staff, courses := assignmentFixtures()
	svc := newAssignmentService(&mockAssignmentRepo{}, staff, courses)

	_, err := svc.Create(context.Background(), "actor", CreateAssignmentRequest{CourseCode: "GHOST", StaffCode: "ENS20261234"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAssignmentServiceCreateUnknownStaff(t *testing.T) {
	staff, courses := assignmentFixtures()
	svc := newAssignmentService(&mockAssignmentRepo{}, staff, courses)

	_, err := svc.Create(context.Background(), "actor", CreateAssignmentRequest{CourseCode: "INF301", StaffCode: "GHOST"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAssignmentServiceDelete(t *testing.T) {
	staff, courses := assignmentFixtures()
	key := models.AssignmentKey{CourseCode: "INF301", StaffCode: "ENS20261234"}
	repo := &mockAssignmentRepo{assignments: map[models.AssignmentKey]models.Assignment{
		key: {CourseCode: key.CourseCode, StaffCode: key.StaffCode},
	}}
	svc := newAssignmentService(repo, staff, courses)

	require.NoError(t, svc.Delete(context.Background(), "actor", key))

	err := svc.Delete(context.Background(), "actor", key)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAssignmentServiceListByStaff(t *testing.T) {
	staff, courses := assignmentFixtures()
	repo := &mockAssignmentRepo{assignments: map[models.AssignmentKey]models.Assignment{
		{CourseCode: "INF301", StaffCode: "ENS20261234"}: {CourseCode: "INF301", StaffCode: "ENS20261234"},
	}}
	svc := newAssignmentService(repo, staff, courses)

	list, err := svc.ListByStaff(context.Background(), "ENS20261234")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = svc.ListByStaff(context.Background(), "GHOST")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAssignmentServiceCounts(t *testing.T) {
	staff, courses := assignmentFixtures()
	courses.courses["MAT101"] = models.Course{Code: "MAT101", Label: "Analyse"}
	repo := &mockAssignmentRepo{assignments: map[models.AssignmentKey]models.Assignment{
		{CourseCode: "INF301", StaffCode: "ENS20261234"}: {CourseCode: "INF301", StaffCode: "ENS20261234"},
		{CourseCode: "MAT101", StaffCode: "ENS20261234"}: {CourseCode: "MAT101", StaffCode: "ENS20261234"},
	}}
	svc := newAssignmentService(repo, staff, courses)

	byStaff, err := svc.CountByStaff(context.Background(), "ENS20261234")
	require.NoError(t, err)
	assert.Equal(t, 2, byStaff)

	byCourse, err := svc.CountByCourse(context.Background(), "INF301")
	require.NoError(t, err)
	assert.Equal(t, 1, byCourse)

	_, err = svc.CountByStaff(context.Background(), "GHOST")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.CountByCourse(context.Background(), "GHOST")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
