package service

import (
	"context"
	"io"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/acadia-labs/academy-crm-api/internal/dto"
	"github.com/acadia-labs/academy-crm-api/internal/models"
	"github.com/acadia-labs/academy-crm-api/internal/repository"
)

type fakeEnrollmentRepo struct {
	enrollments map[uint]models.Enrollment
	nextID      uint
}

func newFakeEnrollmentRepo() *fakeEnrollmentRepo {
	return &fakeEnrollmentRepo{enrollments: map[uint]models.Enrollment{}}
}

func (r *fakeEnrollmentRepo) List(_ context.Context, academyID uint, filter repository.EnrollmentFilter) ([]models.Enrollment, error) {
	var out []models.Enrollment
	for _, e := range r.enrollments {
		if e.AcademyID != academyID {
			continue
		}
		if filter.StudentID != 0 && e.StudentID != filter.StudentID {
			continue
		}
		if filter.Stage != "" && e.Stage != filter.Stage {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *fakeEnrollmentRepo) GetByID(_ context.Context, id, academyID uint) (models.Enrollment, error) {
	e, ok := r.enrollments[id]
	if !ok || e.AcademyID != academyID {
		return models.Enrollment{}, gorm.ErrRecordNotFound
	}
	return e, nil
}

func (r *fakeEnrollmentRepo) Create(_ context.Context, enrollment *models.Enrollment) error {
	r.nextID++
	enrollment.ID = r.nextID
	r.enrollments[enrollment.ID] = *enrollment
	return nil
}

func (r *fakeEnrollmentRepo) Update(_ context.Context, enrollment *models.Enrollment) error {
	r.enrollments[enrollment.ID] = *enrollment
	return nil
}

func (r *fakeEnrollmentRepo) CountsByStage(_ context.Context, academyID uint) (map[string]int64, error) {
	counts := map[string]int64{}
	for _, e := range r.enrollments {
		if e.AcademyID == academyID {
			counts[e.Stage]++
		}
	}
	return counts, nil
}

func newTestEnrollmentService(t *testing.T) (EnrollmentService, *fakeEnrollmentRepo, uint, uint) {
	t.Helper()

	studentRepo := newFakeStudentRepo()
	student := models.Student{AcademyID: 1, FullName: "Lead"}
	require.NoError(t, studentRepo.Create(context.Background(), &student))

	courseRepo := &fakeCourseRepo{}
	course := models.Course{AcademyID: 1, Name: "Go Bootcamp", StandardFee: 45000}
	require.NoError(t, courseRepo.Create(context.Background(), &course))

	repo := newFakeEnrollmentRepo()
	svc := NewEnrollmentService(repo, studentRepo, courseRepo, validator.New(validator.WithRequiredStructEnabled()), zerolog.New(io.Discard))
	return svc, repo, student.ID, course.ID
}

func TestEnrollmentCreateStartsAtNew(t *testing.T) {
	svc, _, studentID, courseID := newTestEnrollmentService(t)

	resp, err := svc.Create(context.Background(), 1, dto.EnrollmentCreateRequest{
		StudentID: studentID,
		CourseID:  courseID,
		FeeQuoted: 40000,
	})

	require.NoError(t, err)
	require.Equal(t, models.EnrollmentStageNew, resp.Stage)
	require.Equal(t, float64(40000), resp.FeeQuoted)
}

func TestEnrollmentCreateUnknownStudent(t *testing.T) {
	svc, _, _, courseID := newTestEnrollmentService(t)

	_, err := svc.Create(context.Background(), 1, dto.EnrollmentCreateRequest{
		StudentID: 99,
		CourseID:  courseID,
	})

	require.ErrorIs(t, err, ErrStudentNotFound)
}

func TestEnrollmentCreateUnknownCourse(t *testing.T) {
	svc, _, studentID, _ := newTestEnrollmentService(t)

	_, err := svc.Create(context.Background(), 1, dto.EnrollmentCreateRequest{
		StudentID: studentID,
		CourseID:  99,
	})

	require.ErrorIs(t, err, ErrCourseNotFound)
}

func TestEnrollmentStageProgression(t *testing.T) {
	svc, _, studentID, courseID := newTestEnrollmentService(t)

	created, err := svc.Create(context.Background(), 1, dto.EnrollmentCreateRequest{
		StudentID: studentID,
		CourseID:  courseID,
	})
	require.NoError(t, err)

	for _, stage := range []string{
		models.EnrollmentStageContacted,
		models.EnrollmentStageDemo,
		models.EnrollmentStageEnrolled,
	} {
		next := stage
		resp, err := svc.Update(context.Background(), created.ID, 1, dto.EnrollmentUpdateRequest{Stage: &next})
		require.NoError(t, err, "transition to %s", stage)
		require.Equal(t, stage, resp.Stage)
	}
}

func TestEnrollmentRejectsStageSkip(t *testing.T) {
	svc, _, studentID, courseID := newTestEnrollmentService(t)

	created, err := svc.Create(context.Background(), 1, dto.EnrollmentCreateRequest{
		StudentID: studentID,
		CourseID:  courseID,
	})
	require.NoError(t, err)

	enrolled := models.EnrollmentStageEnrolled
	_, err = svc.Update(context.Background(), created.ID, 1, dto.EnrollmentUpdateRequest{Stage: &enrolled})

	require.ErrorIs(t, err, ErrInvalidStageTransition, "new cannot jump straight to enrolled")
}

func TestEnrollmentTerminalStagesAreLocked(t *testing.T) {
	svc, repo, studentID, courseID := newTestEnrollmentService(t)

	created, err := svc.Create(context.Background(), 1, dto.EnrollmentCreateRequest{
		StudentID: studentID,
		CourseID:  courseID,
	})
	require.NoError(t, err)

	lost := models.EnrollmentStageLost
	_, err = svc.Update(context.Background(), created.ID, 1, dto.EnrollmentUpdateRequest{Stage: &lost})
	require.NoError(t, err)

	contacted := models.EnrollmentStageContacted
	_, err = svc.Update(context.Background(), created.ID, 1, dto.EnrollmentUpdateRequest{Stage: &contacted})
	require.ErrorIs(t, err, ErrInvalidStageTransition)

	require.Equal(t, lost, repo.enrollments[created.ID].Stage)
}

func TestEnrollmentUpdateSameStageIsNoop(t *testing.T) {
	svc, _, studentID, courseID := newTestEnrollmentService(t)

	created, err := svc.Create(context.Background(), 1, dto.EnrollmentCreateRequest{
		StudentID: studentID,
		CourseID:  courseID,
	})
	require.NoError(t, err)

	same := models.EnrollmentStageNew
	notes := "spoke on the phone"
	resp, err := svc.Update(context.Background(), created.ID, 1, dto.EnrollmentUpdateRequest{Stage: &same, Notes: &notes})

	require.NoError(t, err)
	require.Equal(t, models.EnrollmentStageNew, resp.Stage)
	require.Equal(t, notes, resp.Notes)
}

func TestEnrollmentUpdateNotFound(t *testing.T) {
	svc, _, _, _ := newTestEnrollmentService(t)

	stage := models.EnrollmentStageContacted
	_, err := svc.Update(context.Background(), 99, 1, dto.EnrollmentUpdateRequest{Stage: &stage})

	require.ErrorIs(t, err, ErrEnrollmentNotFound)
}
