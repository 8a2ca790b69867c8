package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/acadia-labs/academy-crm-api/internal/dto"
	"github.com/acadia-labs/academy-crm-api/internal/models"
	"github.com/acadia-labs/academy-crm-api/internal/observability"
)

var (
	// ErrImportFileRequired indicates no file was attached to the import request.
	ErrImportFileRequired = errors.New("import file is required")
	// ErrImportTooLarge indicates the uploaded file exceeds the size limit.
	ErrImportTooLarge = errors.New("import file too large")
	// ErrImportUnsupportedType indicates the file is neither CSV nor XLSX.
	ErrImportUnsupportedType = errors.New("unsupported import file type (csv, xlsx)")
	// ErrImportEmpty indicates the file has no data rows.
	ErrImportEmpty = errors.New("import file contains no data rows")
)

// ImportService ingests leads in bulk from CSV or XLSX sheets. Rows are
// processed independently: each is created and scored on its own, and a
// failure is reported per row instead of aborting the run.
type ImportService interface {
	Import(ctx context.Context, academyID uint, file *multipart.FileHeader) (dto.ImportResult, error)
}

type importService struct {
	students StudentService
	maxSize  int64
	logger   zerolog.Logger
	tracer   trace.Tracer
}

// NewImportService builds a bulk import service.
func NewImportService(students StudentService, maxSizeMB int, logger zerolog.Logger) ImportService {
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	return &importService{
		students: students,
		maxSize:  int64(maxSizeMB) * 1024 * 1024,
		logger:   logger.With().Str("component", "import_service").Logger(),
		tracer:   otel.Tracer("github.com/acadia-labs/academy-crm-api/internal/service/import"),
	}
}

func (s *importService) Import(ctx context.Context, academyID uint, file *multipart.FileHeader) (dto.ImportResult, error) {
	ctx, span := s.tracer.Start(ctx, "import.run", trace.WithAttributes(
		attribute.Int64("crm.academy_id", int64(academyID)),
	))
	defer span.End()

	if file == nil {
		span.SetStatus(codes.Error, "file missing")
		return dto.ImportResult{}, ErrImportFileRequired
	}
	if file.Size > s.maxSize {
		span.SetStatus(codes.Error, "file too large")
		return dto.ImportResult{}, ErrImportTooLarge
	}

	handle, err := file.Open()
	if err != nil {
		span.RecordError(err)
		return dto.ImportResult{}, fmt.Errorf("open import file: %w", err)
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.maxSize+1)); err != nil {
		span.RecordError(err)
		return dto.ImportResult{}, fmt.Errorf("read import file: %w", err)
	}
	if int64(buf.Len()) > s.maxSize {
		span.SetStatus(codes.Error, "file too large")
		return dto.ImportResult{}, ErrImportTooLarge
	}

	rows, err := s.parseRows(buf.Bytes(), file.Filename)
	if err != nil {
		span.RecordError(err)
		return dto.ImportResult{}, err
	}
	if len(rows) < 2 {
		return dto.ImportResult{}, ErrImportEmpty
	}

	header := rows[0]
	result := dto.ImportResult{TotalRows: len(rows) - 1}

	for i, row := range rows[1:] {
		rowNumber := i + 2

		payload, err := buildCreateRequest(header, row)
		if err == nil {
			_, err = s.students.Create(ctx, academyID, payload)
		}

		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, dto.ImportRowError{Row: rowNumber, Message: err.Error()})
			observability.ImportRows().WithLabelValues("failed").Inc()
			continue
		}

		result.Created++
		observability.ImportRows().WithLabelValues("created").Inc()
	}

	span.SetAttributes(
		attribute.Int("crm.import.total_rows", result.TotalRows),
		attribute.Int("crm.import.created", result.Created),
		attribute.Int("crm.import.failed", result.Failed),
	)

	s.logger.Info().
		Uint("academy_id", academyID).
		Int("total_rows", result.TotalRows).
		Int("created", result.Created).
		Int("failed", result.Failed).
		Msg("bulk import completed")

	return result, nil
}

// parseRows sniffs the content type and decodes the sheet into string rows.
// The filename extension is only a fallback when detection is ambiguous.
func (s *importService) parseRows(data []byte, filename string) ([][]string, error) {
	detected := mimetype.Detect(data)

	switch {
	case detected.Is("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"),
		detected.Is("application/zip") && strings.HasSuffix(strings.ToLower(filename), ".xlsx"):
		return parseXLSX(data)
	case detected.Is("text/csv"),
		detected.Is("text/plain"),
		strings.HasSuffix(strings.ToLower(filename), ".csv"):
		return parseCSV(data)
	default:
		return nil, ErrImportUnsupportedType
	}
}

func parseCSV(data []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return rows, nil
}

func parseXLSX(data []byte) ([][]string, error) {
	workbook, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse xlsx: %w", err)
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrImportEmpty
	}

	rows, err := workbook.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read xlsx rows: %w", err)
	}
	return rows, nil
}

// buildCreateRequest maps a sheet row onto a create payload. Recognized
// headers fill canonical fields; anything else lands in custom_data keyed
// by the normalized header.
func buildCreateRequest(header, row []string) (dto.StudentCreateRequest, error) {
	payload := dto.StudentCreateRequest{CustomData: map[string]interface{}{}}

	for i, rawKey := range header {
		if i >= len(row) {
			break
		}
		value := strings.TrimSpace(row[i])
		key := strings.ToLower(strings.TrimSpace(rawKey))

		switch key {
		case "full_name", "name":
			payload.FullName = value
		case "email":
			payload.Email = value
		case "phone":
			payload.Phone = value
		case "status":
			payload.Status = value
		case "lead_source", "source":
			payload.LeadSource = value
		case "qualification":
			payload.Qualification = value
		case "work_experience":
			payload.WorkExperience = value
		case models.FieldKeyCourseInterested, "course_id":
			if value == "" {
				continue
			}
			courseID, err := strconv.ParseUint(value, 10, 64)
			if err != nil {
				return dto.StudentCreateRequest{}, fmt.Errorf("invalid course id %q", value)
			}
			id := uint(courseID)
			payload.CourseInterestedID = &id
		case "":
			// unnamed column, skip
		default:
			if value != "" {
				payload.CustomData[key] = value
			}
		}
	}

	if payload.FullName == "" {
		return dto.StudentCreateRequest{}, errors.New("full_name is required")
	}

	return payload, nil
}
