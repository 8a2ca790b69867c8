package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/acadia-labs/academy-crm-api/internal/models"
	"github.com/acadia-labs/academy-crm-api/internal/scoring"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Student{},
		&models.Course{},
		&models.Enrollment{},
		&models.CustomFieldConfig{},
		&models.SystemFieldConfig{},
	))
	t.Cleanup(func() {
		db.Migrator().DropTable(
			&models.Student{},
			&models.Course{},
			&models.Enrollment{},
			&models.CustomFieldConfig{},
			&models.SystemFieldConfig{},
		)
	})
	return db
}

func TestStudentRepositoryListFiltersAndPaginates(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStudentRepository(db)

	older := models.Student{AcademyID: 1, FullName: "Priya Sharma", Email: "priya@example.com", Status: models.StudentStatusInquiry, LeadSource: "Referral", LeadScore: 80, CreatedAt: time.Now().Add(-2 * time.Hour)}
	newer := models.Student{AcademyID: 1, FullName: "Arun Kumar", Email: "arun@example.com", Status: models.StudentStatusActive, LeadSource: "Walk-in", LeadScore: 30, CreatedAt: time.Now().Add(-1 * time.Hour)}
	other := models.Student{AcademyID: 2, FullName: "Other Academy", Email: "other@example.com", Status: models.StudentStatusInquiry}
	require.NoError(t, db.Create(&older).Error)
	require.NoError(t, db.Create(&newer).Error)
	require.NoError(t, db.Create(&other).Error)

	students, total, err := repo.List(context.Background(), 1, StudentFilter{Search: "priya", PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Len(t, students, 1)
	require.Equal(t, "Priya Sharma", students[0].FullName)

	students, total, err = repo.List(context.Background(), 1, StudentFilter{PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, int64(2), total, "listing never crosses academies")
	require.Equal(t, "Arun Kumar", students[0].FullName, "expected newest record first")

	students, _, err = repo.List(context.Background(), 1, StudentFilter{MinScore: 50, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, students, 1)
	require.Equal(t, 80, students[0].LeadScore)

	students, _, err = repo.List(context.Background(), 1, StudentFilter{Status: models.StudentStatusActive, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, students, 1)
	require.Equal(t, "Arun Kumar", students[0].FullName)
}

func TestStudentRepositoryFindByContact(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStudentRepository(db)

	student := models.Student{AcademyID: 1, FullName: "Priya", Email: "priya@example.com", Phone: "+9198765"}
	require.NoError(t, db.Create(&student).Error)

	found, err := repo.FindByContact(context.Background(), 1, "priya@example.com", "")
	require.NoError(t, err)
	require.Equal(t, student.ID, found.ID)

	found, err = repo.FindByContact(context.Background(), 1, "", "+9198765")
	require.NoError(t, err)
	require.Equal(t, student.ID, found.ID)

	_, err = repo.FindByContact(context.Background(), 2, "priya@example.com", "+9198765")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound, "contact lookup is tenant scoped")

	_, err = repo.FindByContact(context.Background(), 1, "", "")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestStudentRepositoryDeleteScopedToAcademy(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStudentRepository(db)

	student := models.Student{AcademyID: 1, FullName: "Priya"}
	require.NoError(t, db.Create(&student).Error)

	require.ErrorIs(t, repo.Delete(context.Background(), student.ID, 2), gorm.ErrRecordNotFound)
	require.NoError(t, repo.Delete(context.Background(), student.ID, 1))
	require.ErrorIs(t, repo.Delete(context.Background(), student.ID, 1), gorm.ErrRecordNotFound)
}

func TestStudentRepositoryScoringContext(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStudentRepository(db)

	course := models.Course{AcademyID: 1, Name: "Go Bootcamp", StandardFee: 45000}
	require.NoError(t, db.Create(&course).Error)

	student := models.Student{
		AcademyID:          1,
		FullName:           "Priya",
		LeadSource:         "Referral",
		Qualification:      "BSc",
		CourseInterestedID: &course.ID,
		CustomData:         datatypes.JSONMap{"preferred_batch": "Morning"},
	}
	require.NoError(t, db.Create(&student).Error)

	sc, err := repo.GetScoringContext(context.Background(), student.ID, 1)
	require.NoError(t, err)
	require.Equal(t, "Referral", sc.LeadSource)
	require.Equal(t, "BSc", sc.Qualification)
	require.Equal(t, float64(45000), sc.CourseFee)
	require.Equal(t, "Morning", sc.CustomData["preferred_batch"])

	_, err = repo.GetScoringContext(context.Background(), student.ID, 2)
	require.ErrorIs(t, err, scoring.ErrStudentNotFound)
}

func TestStudentRepositorySetLeadScore(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStudentRepository(db)

	student := models.Student{AcademyID: 1, FullName: "Priya"}
	require.NoError(t, db.Create(&student).Error)

	require.NoError(t, repo.SetLeadScore(context.Background(), student.ID, 1, 72))

	var reloaded models.Student
	require.NoError(t, db.First(&reloaded, student.ID).Error)
	require.Equal(t, 72, reloaded.LeadScore)

	require.ErrorIs(t, repo.SetLeadScore(context.Background(), student.ID, 2, 10), scoring.ErrStudentNotFound)
	require.ErrorIs(t, repo.SetLeadScore(context.Background(), 9999, 1, 10), scoring.ErrStudentNotFound)
}

func TestStudentRepositoryAggregateStats(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStudentRepository(db)

	rows := []models.Student{
		{AcademyID: 1, FullName: "A", Status: models.StudentStatusInquiry, LeadScore: 90},
		{AcademyID: 1, FullName: "B", Status: models.StudentStatusInquiry, LeadScore: 60},
		{AcademyID: 1, FullName: "C", Status: models.StudentStatusActive, LeadScore: 30},
		{AcademyID: 2, FullName: "D", Status: models.StudentStatusInquiry, LeadScore: 100},
	}
	for i := range rows {
		require.NoError(t, db.Create(&rows[i]).Error)
	}

	stats, err := repo.AggregateStats(context.Background(), 1, 75)
	require.NoError(t, err)
	require.Equal(t, int64(3), stats.Total)
	require.Equal(t, int64(2), stats.CountsByStatus[models.StudentStatusInquiry])
	require.Equal(t, int64(1), stats.CountsByStatus[models.StudentStatusActive])
	require.Equal(t, int64(1), stats.HotLeads)
	require.InDelta(t, 60.0, stats.AverageLeadScore, 0.01)
}
