package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/acadia-labs/academy-crm-api/internal/dto"
	"github.com/acadia-labs/academy-crm-api/internal/models"
)

func newTestWebhookService(verifyToken, appSecret string) (WebhookService, *fakeStudentRepo) {
	repo := newFakeStudentRepo()
	courses := &fakeCourseRepo{courses: map[uint]models.Course{
		3: {AcademyID: 1, Name: "Go Bootcamp", StandardFee: 45000},
	}}
	students := newTestStudentService(repo, courses, &stubScorer{score: 50})
	return NewWebhookService(students, verifyToken, appSecret, zerolog.New(io.Discard)), repo
}

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func leadPayload(leadgenID string, fields ...dto.MetaLeadField) dto.MetaLeadPayload {
	return dto.MetaLeadPayload{
		Object: "page",
		Entry: []dto.MetaLeadEntry{{
			ID: "1789",
			Changes: []dto.MetaLeadChange{{
				Field: "leadgen",
				Value: dto.MetaLeadValue{
					LeadgenID: leadgenID,
					FormID:    "form-77",
					FieldData: fields,
				},
			}},
		}},
	}
}

func TestWebhookVerifySubscription(t *testing.T) {
	svc, _ := newTestWebhookService("verify-me", "")

	challenge, err := svc.VerifySubscription("subscribe", "verify-me", "challenge-123")
	require.NoError(t, err)
	require.Equal(t, "challenge-123", challenge)

	_, err = svc.VerifySubscription("subscribe", "wrong-token", "challenge-123")
	require.ErrorIs(t, err, ErrWebhookVerifyToken)

	_, err = svc.VerifySubscription("unsubscribe", "verify-me", "challenge-123")
	require.ErrorIs(t, err, ErrWebhookVerifyToken)
}

func TestWebhookVerifySignature(t *testing.T) {
	svc, _ := newTestWebhookService("", "app-secret")
	body := []byte(`{"object":"page"}`)

	require.NoError(t, svc.VerifySignature(body, signBody("app-secret", body)))
	require.ErrorIs(t, svc.VerifySignature(body, signBody("other-secret", body)), ErrWebhookSignature)
	require.ErrorIs(t, svc.VerifySignature(body, ""), ErrWebhookSignature)
	require.ErrorIs(t, svc.VerifySignature(body, "sha256="), ErrWebhookSignature)
}

func TestWebhookVerifySignatureDisabledWithoutSecret(t *testing.T) {
	svc, _ := newTestWebhookService("", "")

	require.NoError(t, svc.VerifySignature([]byte("anything"), "sha256=bogus"))
}

func TestWebhookProcessLeadCreatesStudent(t *testing.T) {
	svc, repo := newTestWebhookService("", "")

	payload := leadPayload("lead-1",
		dto.MetaLeadField{Name: "full_name", Values: []string{"Priya Sharma"}},
		dto.MetaLeadField{Name: "email", Values: []string{"priya@example.com"}},
		dto.MetaLeadField{Name: "phone_number", Values: []string{"+9198765"}},
		dto.MetaLeadField{Name: "qualification", Values: []string{"BSc"}},
		dto.MetaLeadField{Name: "course_interested_id", Values: []string{"3"}},
		dto.MetaLeadField{Name: "preferred_batch", Values: []string{"Morning"}},
	)

	result, err := svc.ProcessLeadPayload(context.Background(), 1, payload)

	require.NoError(t, err)
	require.Equal(t, dto.WebhookIntakeResult{Created: 1}, result)
	require.Len(t, repo.students, 1)

	var student models.Student
	for _, s := range repo.students {
		student = s
	}
	require.Equal(t, "Priya Sharma", student.FullName)
	require.Equal(t, "priya@example.com", student.Email)
	require.Equal(t, "Meta Lead Ads", student.LeadSource)
	require.Equal(t, "BSc", student.Qualification)
	require.NotNil(t, student.CourseInterestedID)
	require.Equal(t, uint(3), *student.CourseInterestedID)
	require.Equal(t, "Morning", student.CustomData["preferred_batch"])
	require.Equal(t, "form-77", student.CustomData["meta_form_id"])
}

func TestWebhookProcessLeadSkipsDuplicates(t *testing.T) {
	svc, repo := newTestWebhookService("", "")

	payload := leadPayload("lead-1",
		dto.MetaLeadField{Name: "full_name", Values: []string{"Priya"}},
		dto.MetaLeadField{Name: "email", Values: []string{"priya@example.com"}},
	)

	_, err := svc.ProcessLeadPayload(context.Background(), 1, payload)
	require.NoError(t, err)

	result, err := svc.ProcessLeadPayload(context.Background(), 1, payload)
	require.NoError(t, err)
	require.Equal(t, dto.WebhookIntakeResult{Skipped: 1}, result)
	require.Len(t, repo.students, 1)
}

func TestWebhookProcessLeadFallbackName(t *testing.T) {
	svc, repo := newTestWebhookService("", "")

	payload := leadPayload("lead-42",
		dto.MetaLeadField{Name: "email", Values: []string{"anon@example.com"}},
	)

	result, err := svc.ProcessLeadPayload(context.Background(), 1, payload)

	require.NoError(t, err)
	require.Equal(t, 1, result.Created)
	for _, s := range repo.students {
		require.Equal(t, "Meta Lead lead-42", s.FullName)
	}
}

func TestWebhookProcessLeadIgnoresOtherChanges(t *testing.T) {
	svc, repo := newTestWebhookService("", "")

	payload := dto.MetaLeadPayload{
		Object: "page",
		Entry: []dto.MetaLeadEntry{{
			Changes: []dto.MetaLeadChange{{Field: "feed"}},
		}},
	}

	result, err := svc.ProcessLeadPayload(context.Background(), 1, payload)

	require.NoError(t, err)
	require.Equal(t, dto.WebhookIntakeResult{}, result)
	require.Empty(t, repo.students)
}

func TestWebhookProcessLeadNonNumericCourseGoesToCustomData(t *testing.T) {
	svc, repo := newTestWebhookService("", "")

	payload := leadPayload("lead-7",
		dto.MetaLeadField{Name: "full_name", Values: []string{"Arun"}},
		dto.MetaLeadField{Name: "course", Values: []string{"Data Science"}},
	)

	result, err := svc.ProcessLeadPayload(context.Background(), 1, payload)

	require.NoError(t, err)
	require.Equal(t, 1, result.Created)
	for _, s := range repo.students {
		require.Nil(t, s.CourseInterestedID)
		require.Equal(t, "Data Science", s.CustomData["course"])
	}
}
