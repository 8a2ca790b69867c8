package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/acadia-labs/academy-crm-api/internal/dto"
	"github.com/acadia-labs/academy-crm-api/internal/models"
	"github.com/acadia-labs/academy-crm-api/internal/observability"
)

const metaLeadSource = "Meta Lead Ads"

var (
	// ErrWebhookSignature indicates the payload signature did not verify.
	ErrWebhookSignature = errors.New("invalid webhook signature")
	// ErrWebhookVerifyToken indicates a failed subscription handshake.
	ErrWebhookVerifyToken = errors.New("invalid webhook verify token")
)

// WebhookService ingests Meta Lead Ads deliveries. Each lead in a delivery
// is created and scored independently; duplicates are skipped rather than
// failing the whole batch so Meta does not retry indefinitely.
type WebhookService interface {
	VerifySubscription(mode, token, challenge string) (string, error)
	VerifySignature(body []byte, signatureHeader string) error
	ProcessLeadPayload(ctx context.Context, academyID uint, payload dto.MetaLeadPayload) (dto.WebhookIntakeResult, error)
}

type webhookService struct {
	students    StudentService
	verifyToken string
	appSecret   string
	logger      zerolog.Logger
}

// NewWebhookService builds a Meta Lead Ads webhook service.
func NewWebhookService(students StudentService, verifyToken, appSecret string, logger zerolog.Logger) WebhookService {
	return &webhookService{
		students:    students,
		verifyToken: verifyToken,
		appSecret:   appSecret,
		logger:      logger.With().Str("component", "webhook_service").Logger(),
	}
}

// VerifySubscription answers the GET handshake Meta performs when the
// webhook is registered: echo the challenge when the token matches.
func (s *webhookService) VerifySubscription(mode, token, challenge string) (string, error) {
	if mode != "subscribe" || token == "" || token != s.verifyToken {
		return "", ErrWebhookVerifyToken
	}
	return challenge, nil
}

// VerifySignature checks the X-Hub-Signature-256 header: "sha256=" followed
// by the hex HMAC-SHA256 of the raw body keyed with the app secret.
func (s *webhookService) VerifySignature(body []byte, signatureHeader string) error {
	if s.appSecret == "" {
		// signature checking disabled (local development)
		return nil
	}

	signature := strings.TrimPrefix(strings.TrimSpace(signatureHeader), "sha256=")
	if signature == "" {
		return ErrWebhookSignature
	}

	mac := hmac.New(sha256.New, []byte(s.appSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrWebhookSignature
	}
	return nil
}

func (s *webhookService) ProcessLeadPayload(ctx context.Context, academyID uint, payload dto.MetaLeadPayload) (dto.WebhookIntakeResult, error) {
	result := dto.WebhookIntakeResult{}

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			if change.Field != "leadgen" {
				continue
			}

			request := buildLeadRequest(change.Value)
			_, err := s.students.Create(ctx, academyID, request)
			switch {
			case err == nil:
				result.Created++
				observability.WebhookEvents().WithLabelValues("created").Inc()
			case errors.Is(err, ErrDuplicateContact):
				result.Skipped++
				observability.WebhookEvents().WithLabelValues("skipped").Inc()
				s.logger.Debug().
					Uint("academy_id", academyID).
					Str("leadgen_id", change.Value.LeadgenID).
					Msg("duplicate lead skipped")
			default:
				result.Rejected++
				observability.WebhookEvents().WithLabelValues("rejected").Inc()
				s.logger.Warn().Err(err).
					Uint("academy_id", academyID).
					Str("leadgen_id", change.Value.LeadgenID).
					Msg("lead intake rejected")
			}
		}
	}

	s.logger.Info().
		Uint("academy_id", academyID).
		Int("created", result.Created).
		Int("skipped", result.Skipped).
		Int("rejected", result.Rejected).
		Msg("webhook delivery processed")

	return result, nil
}

// buildLeadRequest maps Meta form answers onto a create payload. Well-known
// question names fill canonical fields; everything else becomes custom data.
func buildLeadRequest(value dto.MetaLeadValue) dto.StudentCreateRequest {
	request := dto.StudentCreateRequest{
		Status:     models.StudentStatusInquiry,
		LeadSource: metaLeadSource,
		CustomData: map[string]interface{}{},
	}

	for _, field := range value.FieldData {
		answer := strings.TrimSpace(strings.Join(field.Values, ", "))
		if answer == "" {
			continue
		}

		switch strings.ToLower(strings.TrimSpace(field.Name)) {
		case "full_name", "full name", "name":
			request.FullName = answer
		case "email":
			request.Email = answer
		case "phone", "phone_number", "phone number":
			request.Phone = answer
		case "qualification":
			request.Qualification = answer
		case "work_experience", "work experience":
			request.WorkExperience = answer
		case models.FieldKeyCourseInterested, "course":
			if courseID, err := strconv.ParseUint(answer, 10, 64); err == nil {
				id := uint(courseID)
				request.CourseInterestedID = &id
			} else {
				request.CustomData["course"] = answer
			}
		default:
			request.CustomData[strings.ToLower(strings.TrimSpace(field.Name))] = answer
		}
	}

	if request.FullName == "" {
		request.FullName = "Meta Lead " + value.LeadgenID
	}
	if value.FormID != "" {
		request.CustomData["meta_form_id"] = value.FormID
	}

	return request
}
