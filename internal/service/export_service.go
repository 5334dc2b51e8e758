package service

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/coe-platform/coe-api/internal/models"
	appErrors "github.com/coe-platform/coe-api/pkg/errors"
	"github.com/coe-platform/coe-api/pkg/export"
	"github.com/coe-platform/coe-api/pkg/storage"
)

// ExportFormat enumerates supported participant export formats.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type exportEventReader interface {
	FindByID(ctx context.Context, id string) (*models.Event, error)
}

type exportRegistrationLister interface {
	ListByEvent(ctx context.Context, eventID string) ([]models.EventRegistration, error)
}

type exportUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type exportStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       ExportFormat
	ExpiresAt    time.Time
}

// ExportService renders participant lists into downloadable files behind
// signed URLs.
type ExportService struct {
	events        exportEventReader
	registrations exportRegistrationLister
	users         exportUserReader
	storage       exportStorage
	csv           csvRenderer
	pdf           pdfRenderer
	signer        *storage.SignedURLSigner
	logger        *zap.Logger
	cfg           ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(events exportEventReader, registrations exportRegistrationLister, users exportUserReader, store exportStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		events:        events,
		registrations: registrations,
		users:         users,
		storage:       store,
		csv:           csv,
		pdf:           pdf,
		signer:        signer,
		logger:        logger,
		cfg:           cfg,
	}
}

// ExportParticipants renders the registered participants of an event and
// stores the file behind a signed download token.
func (s *ExportService) ExportParticipants(ctx context.Context, eventID string, format ExportFormat) (*ExportResult, error) {
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}

	dataset, err := s.buildParticipantDataset(ctx, event)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to collect participants")
	}

	var payload []byte
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, fmt.Sprintf("Participants - %s", event.EventName))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	filename := fmt.Sprintf("participants/%s_%s.%s", sanitizeFilename(event.EventName),
		time.Now().UTC().Format("20060102_150405"), format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}

	exportID := uuid.NewString()
	token, expiresAt, err := s.signer.Generate(exportID, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download url")
	}

	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/files/%s", prefix, token),
		Format:       format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string) (relPath string, err error) {
	_, relPath, _, err = s.signer.Parse(token, false)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}
	return relPath, nil
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildParticipantDataset(ctx context.Context, event *models.Event) (export.Dataset, error) {
	registrations, err := s.registrations.ListByEvent(ctx, event.ID)
	if err != nil {
		return export.Dataset{}, err
	}

	byUser := make(map[string]models.EventRegistration, len(registrations))
	for _, registration := range registrations {
		byUser[registration.UserID] = registration
	}

	rows := make([]map[string]string, 0, len(event.RegisteredUsers))
	for _, userID := range event.RegisteredUsers {
		row := map[string]string{
			"User ID":  userID,
			"Username": "",
			"Email":    "",
		}
		user, err := s.users.FindByID(ctx, userID)
		if err == nil {
			row["Username"] = user.Username
			row["Email"] = user.Email
		} else if err != sql.ErrNoRows {
			return export.Dataset{}, err
		}
		if registration, ok := byUser[userID]; ok {
			row["Resume"] = registration.ResumePath
			row["Portfolio"] = registration.Portfolio
			row["Registered At"] = registration.CreatedAt.UTC().Format(time.RFC3339)
		}
		rows = append(rows, row)
	}

	return export.Dataset{
		Headers: []string{"User ID", "Username", "Email", "Resume", "Portfolio", "Registered At"},
		Rows:    rows,
	}, nil
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "event"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
