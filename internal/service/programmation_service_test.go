package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Logan1xl/suivie-academique/internal/models"
	"github.com/Logan1xl/suivie-academique/internal/repository"
	appErrors "github.com/Logan1xl/suivie-academique/pkg/errors"
)

type mockProgRepo struct {
	progs  map[int]models.Programmation
	nextID int
}

func (m *mockProgRepo) overlaps(roomCode string, start, end time.Time, excludeID int) bool {
	for _, p := range m.progs {
		if p.RoomCode != roomCode || p.ID == excludeID {
			continue
		}
		if (!p.StartAt.After(start) && !p.EndAt.Before(start)) ||
			(!p.StartAt.After(end) && !p.EndAt.Before(end)) ||
			(!p.StartAt.Before(start) && !p.EndAt.After(end)) {
			return true
		}
	}
	return false
}

func (m *mockProgRepo) IsRoomAvailable(ctx context.Context, roomCode string, start, end time.Time, excludeID int) (bool, error) {
	return !m.overlaps(roomCode, start, end, excludeID), nil
}

func (m *mockProgRepo) Create(ctx context.Context, prog *models.Programmation) error {
	if m.overlaps(prog.RoomCode, prog.StartAt, prog.EndAt, 0) {
		return repository.ErrRoomUnavailable
	}
	if m.progs == nil {
		m.progs = make(map[int]models.Programmation)
	}
	m.nextID++
	prog.ID = m.nextID
	m.progs[prog.ID] = *prog
	return nil
}

func (m *mockProgRepo) Update(ctx context.Context, prog *models.Programmation) error {
	if _, ok := m.progs[prog.ID]; !ok {
		return sql.ErrNoRows
	}
	if m.overlaps(prog.RoomCode, prog.StartAt, prog.EndAt, prog.ID) {
		return repository.ErrRoomUnavailable
	}
	m.progs[prog.ID] = *prog
	return nil
}

func (m *mockProgRepo) SetValidated(ctx context.Context, id int, validatorCode string) error {
	p, ok := m.progs[id]
	if !ok {
		return sql.ErrNoRows
	}
	p.Status = models.StatusValidated
	p.ValidatorCode = &validatorCode
	m.progs[id] = p
	return nil
}

func (m *mockProgRepo) Delete(ctx context.Context, id int) error {
	if _, ok := m.progs[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.progs, id)
	return nil
}

func (m *mockProgRepo) FindByID(ctx context.Context, id int) (*models.ProgrammationDetail, error) {
	if p, ok := m.progs[id]; ok {
		return &models.ProgrammationDetail{Programmation: p}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockProgRepo) List(ctx context.Context, filter models.ProgrammationFilter) ([]models.ProgrammationDetail, error) {
	var out []models.ProgrammationDetail
	for _, p := range m.progs {
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		if filter.RoomCode != "" && p.RoomCode != filter.RoomCode {
			continue
		}
		if filter.CourseCode != "" && p.CourseCode != filter.CourseCode {
			continue
		}
		out = append(out, models.ProgrammationDetail{Programmation: p})
	}
	return out, nil
}

func (m *mockProgRepo) ListPending(ctx context.Context) ([]models.ProgrammationDetail, error) {
	var out []models.ProgrammationDetail
	for _, p := range m.progs {
		if p.Status == models.StatusScheduled && p.ValidatorCode == nil {
			out = append(out, models.ProgrammationDetail{Programmation: p})
		}
	}
	return out, nil
}

func (m *mockProgRepo) ListUpcoming(ctx context.Context, now time.Time) ([]models.ProgrammationDetail, error) {
	var out []models.ProgrammationDetail
	for _, p := range m.progs {
		if !p.StartAt.Before(now) {
			out = append(out, models.ProgrammationDetail{Programmation: p})
		}
	}
	return out, nil
}

func (m *mockProgRepo) ListTodayByRoom(ctx context.Context, roomCode string) ([]models.ProgrammationDetail, error) {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	var out []models.ProgrammationDetail
	for _, p := range m.progs {
		if p.RoomCode == roomCode && p.StartAt.UTC().Truncate(24*time.Hour).Equal(today) {
			out = append(out, models.ProgrammationDetail{Programmation: p})
		}
	}
	return out, nil
}

func (m *mockProgRepo) CountByStatus(ctx context.Context, status models.ProgrammationStatus) (int, error) {
	count := 0
	for _, p := range m.progs {
		if p.Status == status {
			count++
		}
	}
	return count, nil
}

func newProgrammationService(repo *mockProgRepo) *ProgrammationService {
	rooms := &mockRoomRepo{rooms: map[string]models.Room{
		"A101": {Code: "A101", Capacity: 120, Status: models.RoomFree},
		"B202": {Code: "B202", Capacity: 60, Status: models.RoomFree},
		"C303": {Code: "C303", Capacity: 40, Status: models.RoomClosed},
	}}
	courses := &mockCourseRepo{courses: map[string]models.Course{"INF301": {Code: "INF301", Label: "Systemes"}}}
	staff := &mockStaffRepo{staff: map[string]models.Staff{
		"ENS20261234": {Code: "ENS20261234", Role: models.RoleTeacher},
		"RA20265678":  {Code: "RA20265678", Role: models.RoleAcademicManager},
	}}
	return NewProgrammationService(repo, rooms, courses, staff, nil, nil, nil, validator.New(), zap.NewNop())
}

func window(hour, durationHours int) (time.Time, time.Time) {
	day := time.Date(2026, time.September, 7, 0, 0, 0, 0, time.UTC)
	start := day.Add(time.Duration(hour) * time.Hour)
	return start, start.Add(time.Duration(durationHours) * time.Hour)
}

func TestProgrammationServiceCreate(t *testing.T) {
	repo := &mockProgRepo{}
	svc := newProgrammationService(repo)

	start, end := window(8, 2)
	prog, err := svc.Create(context.Background(), "ENS20261234", CreateProgrammationRequest{
		HourCount:  2,
		StartAt:    start,
		EndAt:      end,
		RoomCode:   "A101",
		CourseCode: "INF301",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusScheduled, prog.Status)
	assert.Equal(t, "ENS20261234", prog.OrganizerCode)
	assert.Nil(t, prog.ValidatorCode)
}

func TestProgrammationServiceCreateOverlap(t *testing.T) {
	repo := &mockProgRepo{}
	svc := newProgrammationService(repo)

	start, end := window(8, 2)
	_, err := svc.Create(context.Background(), "ENS20261234", CreateProgrammationRequest{
		HourCount: 2, StartAt: start, EndAt: end, RoomCode: "A101", CourseCode: "INF301",
	})
	require.NoError(t, err)

	midStart, midEnd := window(9, 2)
	_, err = svc.Create(context.Background(), "ENS20261234", CreateProgrammationRequest{
		HourCount: 2, StartAt: midStart, EndAt: midEnd, RoomCode: "A101", CourseCode: "INF301",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestProgrammationServiceCreateBackToBackConflicts(t *testing.T) {
	repo := &mockProgRepo{}
	svc := newProgrammationService(repo)

	start, end := window(8, 2)
	_, err := svc.Create(context.Background(), "ENS20261234", CreateProgrammationRequest{
		HourCount: 2, StartAt: start, EndAt: end, RoomCode: "A101", CourseCode: "INF301",
	})
	require.NoError(t, err)

	// A session starting exactly when the previous one ends still collides:
	// bounds are inclusive.
	nextStart, nextEnd := window(10, 2)
	require.True(t, nextStart.Equal(end))
	_, err = svc.Create(context.Background(), "ENS20261234", CreateProgrammationRequest{
		HourCount: 2, StartAt: nextStart, EndAt: nextEnd, RoomCode: "A101", CourseCode: "INF301",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestProgrammationServiceCreateOtherRoomSameWindow(t *testing.T) {
	repo := &mockProgRepo{}
	svc := newProgrammationService(repo)

	start, end := window(8, 2)
	_, err := svc.Create(context.Background(), "ENS20261234", CreateProgrammationRequest{
		HourCount: 2, StartAt: start, EndAt: end, RoomCode: "A101", CourseCode: "INF301",
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), "ENS20261234", CreateProgrammationRequest{
		HourCount: 2, StartAt: start, EndAt: end, RoomCode: "B202", CourseCode: "INF301",
	})
	require.NoError(t, err)
}

func TestProgrammationServiceCreateInvalidWindow(t *testing.T) {
	svc := newProgrammationService(&mockProgRepo{})

	start, end := window(10, 2)
	_, err := svc.Create(context.Background(), "ENS20261234", CreateProgrammationRequest{
		HourCount: 2, StartAt: end, EndAt: start, RoomCode: "A101", CourseCode: "INF301",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestProgrammationServiceCreateClosedRoom(t *testing.T) {
	svc := newProgrammationService(&mockProgRepo{})

	start, end := window(8, 2)
	_, err := svc.Create(context.Background(), "ENS20261234", CreateProgrammationRequest{
		HourCount: 2, StartAt: start, EndAt: end, RoomCode: "C303", CourseCode: "INF301",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestProgrammationServiceCreateUnknownRefs(t *testing.T) {
	svc := newProgrammationService(&mockProgRepo{})
	start, end := window(8, 2)

	_, err := svc.Create(context.Background(), "ENS20261234", CreateProgrammationRequest{
		HourCount: 2, StartAt: start, EndAt: end, RoomCode: "GHOST", CourseCode: "INF301",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.Create(context.Background(), "ENS20261234", CreateProgrammationRequest{
		HourCount: 2, StartAt: start, EndAt: end, RoomCode: "A101", CourseCode: "GHOST",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.Create(context.Background(), "GHOST", CreateProgrammationRequest{
		HourCount: 2, StartAt: start, EndAt: end, RoomCode: "A101", CourseCode: "INF301",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestProgrammationServiceUpdateKeepsOwnSlot(t *testing.T) {
	repo := &mockProgRepo{}
	svc := newProgrammationService(repo)

	start, end := window(8, 2)
	created, err := svc.Create(context.Background(), "ENS20261234", CreateProgrammationRequest{
		HourCount: 2, StartAt: start, EndAt: end, RoomCode: "A101", CourseCode: "INF301",
	})
	require.NoError(t, err)

	// Rescheduling within its own window must not conflict with itself.
	updated, err := svc.Update(context.Background(), "ENS20261234", created.ID, UpdateProgrammationRequest{
		HourCount: 3, StartAt: start, EndAt: end.Add(time.Hour), RoomCode: "A101", CourseCode: "INF301",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.HourCount)
	assert.Equal(t, "ENS20261234", updated.OrganizerCode)
}

func TestProgrammationServiceUpdateOverlapOther(t *testing.T) {
	repo := &mockProgRepo{}
	svc := newProgrammationService(repo)

	start1, end1 := window(8, 2)
	_, err := svc.Create(context.Background(), "ENS20261234", CreateProgrammationRequest{
		HourCount: 2, StartAt: start1, EndAt: end1, RoomCode: "A101", CourseCode: "INF301",
	})
	require.NoError(t, err)

	start2, end2 := window(14, 2)
	second, err := svc.Create(context.Background(), "ENS20261234", CreateProgrammationRequest{
		HourCount: 2, StartAt: start2, EndAt: end2, RoomCode: "A101", CourseCode: "INF301",
	})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), "ENS20261234", second.ID, UpdateProgrammationRequest{
		HourCount: 2, StartAt: start1, EndAt: end1, RoomCode: "A101", CourseCode: "INF301",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestProgrammationServiceValidate(t *testing.T) {
	repo := &mockProgRepo{}
	svc := newProgrammationService(repo)

	start, end := window(8, 2)
	created, err := svc.Create(context.Background(), "ENS20261234", CreateProgrammationRequest{
		HourCount: 2, StartAt: start, EndAt: end, RoomCode: "A101", CourseCode: "INF301",
	})
	require.NoError(t, err)

	validated, err := svc.Validate(context.Background(), "RA20265678", created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusValidated, validated.Status)
	require.NotNil(t, validated.ValidatorCode)
	assert.Equal(t, "RA20265678", *validated.ValidatorCode)

	_, err = svc.Validate(context.Background(), "RA20265678", created.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestProgrammationServiceUpdateValidatedRefused(t *testing.T) {
	repo := &mockProgRepo{}
	svc := newProgrammationService(repo)

	start, end := window(8, 2)
	created, err := svc.Create(context.Background(), "ENS20261234", CreateProgrammationRequest{
		HourCount: 2, StartAt: start, EndAt: end, RoomCode: "A101", CourseCode: "INF301",
	})
	require.NoError(t, err)

	_, err = svc.Validate(context.Background(), "RA20265678", created.ID)
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), "ENS20261234", created.ID, UpdateProgrammationRequest{
		HourCount: 2, StartAt: start, EndAt: end, RoomCode: "A101", CourseCode: "INF301",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestProgrammationServiceValidateUnknownSession(t *testing.T) {
	svc := newProgrammationService(&mockProgRepo{})

	_, err := svc.Validate(context.Background(), "RA20265678", 999)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestProgrammationServiceCheckRoomAvailability(t *testing.T) {
	repo := &mockProgRepo{}
	svc := newProgrammationService(repo)

	start, end := window(8, 2)
	_, err := svc.Create(context.Background(), "ENS20261234", CreateProgrammationRequest{
		HourCount: 2, StartAt: start, EndAt: end, RoomCode: "A101", CourseCode: "INF301",
	})
	require.NoError(t, err)

	available, err := svc.CheckRoomAvailability(context.Background(), "A101", end, end.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, available)

	available, err = svc.CheckRoomAvailability(context.Background(), "A101", end.Add(time.Second), end.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, available)

	_, err = svc.CheckRoomAvailability(context.Background(), "GHOST", start, end)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestProgrammationServicePendingExcludesValidated(t *testing.T) {
	repo := &mockProgRepo{}
	svc := newProgrammationService(repo)

	start1, end1 := window(8, 2)
	first, err := svc.Create(context.Background(), "ENS20261234", CreateProgrammationRequest{
		HourCount: 2, StartAt: start1, EndAt: end1, RoomCode: "A101", CourseCode: "INF301",
	})
	require.NoError(t, err)

	start2, end2 := window(14, 2)
	_, err = svc.Create(context.Background(), "ENS20261234", CreateProgrammationRequest{
		HourCount: 2, StartAt: start2, EndAt: end2, RoomCode: "A101", CourseCode: "INF301",
	})
	require.NoError(t, err)

	_, err = svc.Validate(context.Background(), "RA20265678", first.ID)
	require.NoError(t, err)

	pending, err := svc.ListPending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.NotEqual(t, first.ID, pending[0].ID)
}

func TestProgrammationServiceStats(t *testing.T) {
	repo := &mockProgRepo{}
	svc := newProgrammationService(repo)

	start1, end1 := window(8, 2)
	first, err := svc.Create(context.Background(), "ENS20261234", CreateProgrammationRequest{
		HourCount: 2, StartAt: start1, EndAt: end1, RoomCode: "A101", CourseCode: "INF301",
	})
	require.NoError(t, err)

	start2, end2 := window(14, 2)
	_, err = svc.Create(context.Background(), "ENS20261234", CreateProgrammationRequest{
		HourCount: 2, StartAt: start2, EndAt: end2, RoomCode: "A101", CourseCode: "INF301",
	})
	require.NoError(t, err)

	_, err = svc.Validate(context.Background(), "RA20265678", first.ID)
	require.NoError(t, err)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Scheduled)
	assert.Equal(t, 1, stats.Validated)
	assert.Equal(t, 0, stats.Rejected)
	assert.Equal(t, 2, stats.Total)
}

func TestProgrammationServiceDelete(t *testing.T) {
	repo := &mockProgRepo{}
	svc := newProgrammationService(repo)

	start, end := window(8, 2)
	created, err := svc.Create(context.Background(), "ENS20261234", CreateProgrammationRequest{
		HourCount: 2, StartAt: start, EndAt: end, RoomCode: "A101", CourseCode: "INF301",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), "ENS20261234", created.ID))

	// The freed window can be booked again.
	_, err = svc.Create(context.Background(), "ENS20261234", CreateProgrammationRequest{
		HourCount: 2, StartAt: start, EndAt: end, RoomCode: "A101", CourseCode: "INF301",
	})
	require.NoError(t, err)

	err = svc.Delete(context.Background(), "ENS20261234", 999)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
