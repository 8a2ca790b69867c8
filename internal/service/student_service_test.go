package service

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/acadia-labs/academy-crm-api/internal/dto"
	"github.com/acadia-labs/academy-crm-api/internal/models"
	"github.com/acadia-labs/academy-crm-api/internal/repository"
	"github.com/acadia-labs/academy-crm-api/internal/scoring"
)

type fakeStudentRepo struct {
	students map[uint]models.Student
	nextID   uint
	scores   map[uint]int
	stats    repository.StudentStats
}

func newFakeStudentRepo() *fakeStudentRepo {
	return &fakeStudentRepo{students: map[uint]models.Student{}, scores: map[uint]int{}}
}

func (r *fakeStudentRepo) List(_ context.Context, academyID uint, _ repository.StudentFilter) ([]models.Student, int64, error) {
	var out []models.Student
	for _, s := range r.students {
		if s.AcademyID == academyID {
			out = append(out, s)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeStudentRepo) GetByID(_ context.Context, id, academyID uint) (models.Student, error) {
	s, ok := r.students[id]
	if !ok || s.AcademyID != academyID {
		return models.Student{}, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *fakeStudentRepo) FindByContact(_ context.Context, academyID uint, email, phone string) (models.Student, error) {
	for _, s := range r.students {
		if s.AcademyID != academyID {
			continue
		}
		if (email != "" && s.Email == email) || (phone != "" && s.Phone == phone) {
			return s, nil
		}
	}
	return models.Student{}, gorm.ErrRecordNotFound
}

func (r *fakeStudentRepo) Create(_ context.Context, student *models.Student) error {
	r.nextID++
	student.ID = r.nextID
	r.students[student.ID] = *student
	return nil
}

func (r *fakeStudentRepo) Update(_ context.Context, student *models.Student) error {
	if _, ok := r.students[student.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.students[student.ID] = *student
	return nil
}

func (r *fakeStudentRepo) Delete(_ context.Context, id, academyID uint) error {
	s, ok := r.students[id]
	if !ok || s.AcademyID != academyID {
		return gorm.ErrRecordNotFound
	}
	delete(r.students, id)
	return nil
}

func (r *fakeStudentRepo) AggregateStats(context.Context, uint, int) (repository.StudentStats, error) {
	return r.stats, nil
}

func (r *fakeStudentRepo) GetScoringContext(_ context.Context, studentID, academyID uint) (scoring.StudentContext, error) {
	s, ok := r.students[studentID]
	if !ok || s.AcademyID != academyID {
		return scoring.StudentContext{}, scoring.ErrStudentNotFound
	}
	return scoring.StudentContext{
		CourseInterestedID: s.CourseInterestedID,
		LeadSource:         s.LeadSource,
		Qualification:      s.Qualification,
		WorkExperience:     s.WorkExperience,
		CustomData:         s.CustomData,
	}, nil
}

func (r *fakeStudentRepo) SetLeadScore(_ context.Context, studentID, _ uint, score int) error {
	s, ok := r.students[studentID]
	if !ok {
		return scoring.ErrStudentNotFound
	}
	s.LeadScore = score
	r.students[studentID] = s
	r.scores[studentID] = score
	return nil
}

type fakeCourseRepo struct {
	courses map[uint]models.Course
}

func (r *fakeCourseRepo) List(_ context.Context, academyID uint) ([]models.Course, error) {
	var out []models.Course
	for _, c := range r.courses {
		if c.AcademyID == academyID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeCourseRepo) GetByID(_ context.Context, id, academyID uint) (models.Course, error) {
	c, ok := r.courses[id]
	if !ok || c.AcademyID != academyID {
		return models.Course{}, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (r *fakeCourseRepo) Create(_ context.Context, course *models.Course) error {
	if r.courses == nil {
		r.courses = map[uint]models.Course{}
	}
	course.ID = uint(len(r.courses) + 1)
	r.courses[course.ID] = *course
	return nil
}

func (r *fakeCourseRepo) Update(_ context.Context, course *models.Course) error {
	r.courses[course.ID] = *course
	return nil
}

func (r *fakeCourseRepo) Delete(_ context.Context, id, _ uint) error {
	delete(r.courses, id)
	return nil
}

type stubScorer struct {
	score     int
	err       error
	calls     int
	overrides map[string]string
}

func (s *stubScorer) Compute(_ context.Context, _, _ uint, overrides map[string]string) (int, error) {
	s.calls++
	s.overrides = overrides
	return s.score, s.err
}

func newTestStudentService(repo repository.StudentRepository, courses repository.CourseRepository, scorer LeadScorer) StudentService {
	return NewStudentService(repo, courses, scorer, validator.New(validator.WithRequiredStructEnabled()), zerolog.New(io.Discard))
}

func TestStudentCreateScoresInline(t *testing.T) {
	repo := newFakeStudentRepo()
	scorer := &stubScorer{score: 75}
	svc := newTestStudentService(repo, &fakeCourseRepo{}, scorer)

	resp, err := svc.Create(context.Background(), 1, dto.StudentCreateRequest{
		FullName:   "Priya Sharma",
		Email:      "Priya@Example.com",
		LeadSource: "Referral",
	})

	require.NoError(t, err)
	require.Equal(t, 75, resp.LeadScore)
	require.Equal(t, 1, scorer.calls)
	require.Equal(t, "priya@example.com", resp.Email, "email is normalized to lowercase")
	require.Equal(t, models.StudentStatusInquiry, resp.Status, "status defaults to inquiry")
	require.Equal(t, "Referral", scorer.overrides[models.FieldKeyLeadSource],
		"incoming values are passed to the scorer as overrides")
}

func TestStudentCreateSurvivesScoringFailure(t *testing.T) {
	repo := newFakeStudentRepo()
	scorer := &stubScorer{err: errors.New("config store down")}
	svc := newTestStudentService(repo, &fakeCourseRepo{}, scorer)

	resp, err := svc.Create(context.Background(), 1, dto.StudentCreateRequest{FullName: "Arun"})

	require.NoError(t, err, "a scoring failure must not fail the create")
	require.Equal(t, 0, resp.LeadScore)
	require.Len(t, repo.students, 1)
}

func TestStudentCreateDuplicateContact(t *testing.T) {
	repo := newFakeStudentRepo()
	svc := newTestStudentService(repo, &fakeCourseRepo{}, &stubScorer{})

	_, err := svc.Create(context.Background(), 1, dto.StudentCreateRequest{
		FullName: "First",
		Email:    "lead@example.com",
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), 1, dto.StudentCreateRequest{
		FullName: "Second",
		Email:    "LEAD@example.com",
	})
	require.ErrorIs(t, err, ErrDuplicateContact)
}

func TestStudentCreateDuplicateAllowedAcrossAcademies(t *testing.T) {
	repo := newFakeStudentRepo()
	svc := newTestStudentService(repo, &fakeCourseRepo{}, &stubScorer{})

	_, err := svc.Create(context.Background(), 1, dto.StudentCreateRequest{
		FullName: "First",
		Phone:    "+9198765",
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), 2, dto.StudentCreateRequest{
		FullName: "Second",
		Phone:    "+9198765",
	})
	require.NoError(t, err, "contact uniqueness is scoped per academy")
}

func TestStudentCreateUnknownCourse(t *testing.T) {
	repo := newFakeStudentRepo()
	svc := newTestStudentService(repo, &fakeCourseRepo{}, &stubScorer{})

	courseID := uint(42)
	_, err := svc.Create(context.Background(), 1, dto.StudentCreateRequest{
		FullName:           "Lead",
		CourseInterestedID: &courseID,
	})

	require.ErrorIs(t, err, ErrCourseNotFound)
}

func TestStudentCreateInvalidStatus(t *testing.T) {
	svc := newTestStudentService(newFakeStudentRepo(), &fakeCourseRepo{}, &stubScorer{})

	_, err := svc.Create(context.Background(), 1, dto.StudentCreateRequest{
		FullName: "Lead",
		Status:   "graduated",
	})

	require.Error(t, err)
}

func TestStudentCreateSanitizesMarkup(t *testing.T) {
	repo := newFakeStudentRepo()
	svc := newTestStudentService(repo, &fakeCourseRepo{}, &stubScorer{})

	resp, err := svc.Create(context.Background(), 1, dto.StudentCreateRequest{
		FullName:   `<script>alert(1)</script>Priya`,
		LeadSource: "<b>Referral</b>",
		CustomData: map[string]interface{}{"note": "<i>call later</i>", "budget": 45000},
	})

	require.NoError(t, err)
	require.Equal(t, "Priya", resp.FullName)
	require.Equal(t, "Referral", resp.LeadSource)
	require.Equal(t, "call later", resp.CustomData["note"])
	require.Equal(t, 45000, resp.CustomData["budget"], "non-string values pass through untouched")
}

func TestStudentUpdateRescoresOnlyWhenScoredFieldChanges(t *testing.T) {
	repo := newFakeStudentRepo()
	scorer := &stubScorer{score: 50}
	svc := newTestStudentService(repo, &fakeCourseRepo{}, scorer)

	created, err := svc.Create(context.Background(), 1, dto.StudentCreateRequest{FullName: "Lead"})
	require.NoError(t, err)
	require.Equal(t, 1, scorer.calls)

	name := "Renamed Lead"
	_, err = svc.Update(context.Background(), created.ID, 1, dto.StudentUpdateRequest{FullName: &name})
	require.NoError(t, err)
	require.Equal(t, 1, scorer.calls, "a name change must not trigger a rescore")

	source := "Walk-in"
	updated, err := svc.Update(context.Background(), created.ID, 1, dto.StudentUpdateRequest{LeadSource: &source})
	require.NoError(t, err)
	require.Equal(t, 2, scorer.calls)
	require.Equal(t, 50, updated.LeadScore)
	require.Equal(t, "Walk-in", scorer.overrides[models.FieldKeyLeadSource])
}

func TestStudentUpdateNotFound(t *testing.T) {
	svc := newTestStudentService(newFakeStudentRepo(), &fakeCourseRepo{}, &stubScorer{})

	name := "Ghost"
	_, err := svc.Update(context.Background(), 99, 1, dto.StudentUpdateRequest{FullName: &name})

	require.ErrorIs(t, err, ErrStudentNotFound)
}

func TestStudentRescore(t *testing.T) {
	repo := newFakeStudentRepo()
	scorer := &stubScorer{score: 60}
	svc := newTestStudentService(repo, &fakeCourseRepo{}, scorer)

	created, err := svc.Create(context.Background(), 1, dto.StudentCreateRequest{FullName: "Lead"})
	require.NoError(t, err)

	scorer.score = 80
	resp, err := svc.Rescore(context.Background(), created.ID, 1)

	require.NoError(t, err)
	require.Equal(t, 80, resp.LeadScore)
	require.Nil(t, scorer.overrides, "rescoring reads persisted state, no overrides")
}

func TestStudentRescoreNotFound(t *testing.T) {
	scorer := &stubScorer{err: scoring.ErrStudentNotFound}
	svc := newTestStudentService(newFakeStudentRepo(), &fakeCourseRepo{}, scorer)

	_, err := svc.Rescore(context.Background(), 99, 1)

	require.ErrorIs(t, err, ErrStudentNotFound)
}

func TestStudentDelete(t *testing.T) {
	repo := newFakeStudentRepo()
	svc := newTestStudentService(repo, &fakeCourseRepo{}, &stubScorer{})

	created, err := svc.Create(context.Background(), 1, dto.StudentCreateRequest{FullName: "Lead"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), created.ID, 1))
	require.ErrorIs(t, svc.Delete(context.Background(), created.ID, 1), ErrStudentNotFound)
}

func TestStudentGetScopedToAcademy(t *testing.T) {
	repo := newFakeStudentRepo()
	svc := newTestStudentService(repo, &fakeCourseRepo{}, &stubScorer{})

	created, err := svc.Create(context.Background(), 1, dto.StudentCreateRequest{FullName: "Lead"})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), created.ID, 2)
	require.ErrorIs(t, err, ErrStudentNotFound)
}
