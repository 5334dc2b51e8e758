package service

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/coe-platform/coe-api/internal/models"
	appErrors "github.com/coe-platform/coe-api/pkg/errors"
)

const registrantUpdateRetries = 3

type registrationEventRepository interface {
	FindByID(ctx context.Context, id string) (*models.Event, error)
	UpdateRegistrants(ctx context.Context, event *models.Event, expectedVersion int64) (bool, error)
}

type registrationUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	AppendHistory(ctx context.Context, userID string, entry models.EventHistoryEntry) error
	HasHistoryEntry(ctx context.Context, userID, eventID string) (bool, error)
}

type registrationRecordRepository interface {
	Create(ctx context.Context, registration *models.EventRegistration) error
	FindByEventAndUser(ctx context.Context, eventID, userID string) (*models.EventRegistration, error)
	ListByEvent(ctx context.Context, eventID string) ([]models.EventRegistration, error)
	UpdateAnswers(ctx context.Context, eventID, userID string, answers models.AnswerList) (int64, error)
	ExistsByEventAndUser(ctx context.Context, eventID, userID string) (bool, error)
	DeleteByEventAndUser(ctx context.Context, eventID, userID string) (int64, error)
}

type intentLedger interface {
	Create(ctx context.Context, intent *models.RegistrationIntent) error
	MarkCompleted(ctx context.Context, id string) error
	ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]models.RegistrationIntent, error)
}

type resumeStore interface {
	SaveStream(filename string, r io.Reader) (string, error)
}

// RegistrationService orchestrates event registration: precondition checks,
// submission validation, and the dependent mutations of the event, the
// registration record, and the user's history. An intent ledger row brackets
// the mutations so a sweep can finish interrupted registrations.
type RegistrationService struct {
	events    registrationEventRepository
	users     registrationUserRepository
	records   registrationRecordRepository
	intents   intentLedger
	resumes   resumeStore
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRegistrationService constructs RegistrationService.
func NewRegistrationService(events registrationEventRepository, users registrationUserRepository, records registrationRecordRepository, intents intentLedger, resumes resumeStore, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *RegistrationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{events: events, users: users, records: records, intents: intents, resumes: resumes, cache: cache, validator: validate, logger: logger}
}

// Register runs the full registration flow for a user against an event.
// Preconditions are checked in a fixed order: the event must exist, must be
// open for registration, and the user must not already be registered; only
// then is the submission validated against the event's schema.
func (s *RegistrationService) Register(ctx context.Context, eventID string, submission RegistrationSubmission, resume io.Reader) (*models.EventRegistration, error) {
	if submission.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "user_id is required")
	}

	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	if event.Status != models.EventStatusUpcoming {
		return nil, appErrors.Clone(appErrors.ErrRegistrationClosed, "")
	}
	if event.Capacity != nil && event.TotalRegistrations >= *event.Capacity {
		return nil, appErrors.Clone(appErrors.ErrRegistrationClosed, "event is at capacity")
	}
	if event.IsRegistered(submission.UserID) {
		return nil, appErrors.Clone(appErrors.ErrAlreadyRegistered, "")
	}

	if err := ValidateSubmission(event, submission); err != nil {
		return nil, err
	}

	if _, err := s.users.FindByID(ctx, submission.UserID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	resumePath := ""
	if submission.ResumeFilename != "" && resume != nil {
		resumePath = fmt.Sprintf("resumes/%s/%s%s", eventID, submission.UserID,
			strings.ToLower(path.Ext(submission.ResumeFilename)))
		if _, err := s.resumes.SaveStream(resumePath, resume); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store resume")
		}
	}

	intent := &models.RegistrationIntent{
		EventID: eventID,
		UserID:  submission.UserID,
		Payload: models.IntentPayload{
			EventName:  event.EventName,
			ResumePath: resumePath,
			BasicInfo:  submission.BasicInfo,
			WebLinks:   submission.WebLinks,
			Portfolio:  submission.Portfolio,
		},
	}
	if err := s.intents.Create(ctx, intent); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record registration intent")
	}

	if err := s.addRegistrant(ctx, event, submission.UserID); err != nil {
		return nil, err
	}

	registration := &models.EventRegistration{
		EventID:     eventID,
		UserID:      submission.UserID,
		Answers:     models.AnswerList(submission.Answers),
		ResumePath:  resumePath,
		BasicInfo:   models.StringMap(submission.BasicInfo),
		WebLinks:    models.StringMap(submission.WebLinks),
		Portfolio:   submission.Portfolio,
		CoverLetter: submission.CoverLetter,
	}
	if err := s.records.Create(ctx, registration); err != nil {
		// The event mutation landed; the pending intent lets the sweep
		// finish the record and history later.
		s.logger.Warn("registration record write failed, leaving intent pending",
			zap.String("event_id", eventID), zap.String("user_id", submission.UserID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save registration")
	}

	entry := models.EventHistoryEntry{
		EventID:      eventID,
		EventName:    event.EventName,
		RegisteredAt: time.Now().UTC(),
		Status:       "registered",
		ResumePath:   resumePath,
		BasicInfo:    submission.BasicInfo,
		WebLinks:     submission.WebLinks,
		Portfolio:    submission.Portfolio,
	}
	if err := s.users.AppendHistory(ctx, submission.UserID, entry); err != nil {
		s.logger.Warn("user history append failed, leaving intent pending",
			zap.String("event_id", eventID), zap.String("user_id", submission.UserID), zap.Error(err))
		return registration, nil
	}

	if err := s.intents.MarkCompleted(ctx, intent.ID); err != nil {
		s.logger.Warn("failed to complete registration intent", zap.String("intent_id", intent.ID), zap.Error(err))
	}
	s.invalidateEvents(ctx)
	return registration, nil
}

// addRegistrant appends the user to the event's registrant list under a
// version guard, reloading and retrying when a concurrent write moved the
// version first.
func (s *RegistrationService) addRegistrant(ctx context.Context, event *models.Event, userID string) error {
	for attempt := 0; attempt < registrantUpdateRetries; attempt++ {
		updated := *event
		updated.RegisteredUsers = append(append(models.StringList{}, event.RegisteredUsers...), userID)
		updated.TotalRegistrations = event.TotalRegistrations + 1

		applied, err := s.events.UpdateRegistrants(ctx, &updated, event.Version)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update event registrants")
		}
		if applied {
			*event = updated
			event.Version++
			return nil
		}

		fresh, err := s.events.FindByID(ctx, event.ID)
		if err != nil {
			if err == sql.ErrNoRows {
				return appErrors.Clone(appErrors.ErrNotFound, "event not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload event")
		}
		if fresh.Status != models.EventStatusUpcoming {
			return appErrors.Clone(appErrors.ErrRegistrationClosed, "")
		}
		if fresh.Capacity != nil && fresh.TotalRegistrations >= *fresh.Capacity {
			return appErrors.Clone(appErrors.ErrRegistrationClosed, "event is at capacity")
		}
		if fresh.IsRegistered(userID) {
			return appErrors.Clone(appErrors.ErrAlreadyRegistered, "")
		}
		*event = *fresh
	}
	return appErrors.Clone(appErrors.ErrConflict, "event updated concurrently, please retry")
}

// ReplayPendingIntents finishes registrations whose intent is still pending
// after the grace period: the event registrant list, the registration record,
// and the user history are each brought up to date before the intent is
// completed. Returns how many intents were replayed.
func (s *RegistrationService) ReplayPendingIntents(ctx context.Context, pendingAge time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-pendingAge)
	pending, err := s.intents.ListPendingOlderThan(ctx, cutoff)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending intents")
	}

	replayed := 0
	for _, intent := range pending {
		if err := s.replayIntent(ctx, intent); err != nil {
			s.logger.Warn("intent replay failed", zap.String("intent_id", intent.ID), zap.Error(err))
			continue
		}
		replayed++
	}
	if replayed > 0 {
		s.invalidateEvents(ctx)
	}
	return replayed, nil
}

func (s *RegistrationService) replayIntent(ctx context.Context, intent models.RegistrationIntent) error {
	event, err := s.events.FindByID(ctx, intent.EventID)
	if err != nil {
		if err == sql.ErrNoRows {
			// Event deleted since; nothing left to repair.
			return s.intents.MarkCompleted(ctx, intent.ID)
		}
		return fmt.Errorf("load event: %w", err)
	}

	if !event.IsRegistered(intent.UserID) {
		if err := s.addRegistrant(ctx, event, intent.UserID); err != nil {
			return fmt.Errorf("replay registrant: %w", err)
		}
	}

	exists, err := s.records.ExistsByEventAndUser(ctx, intent.EventID, intent.UserID)
	if err != nil {
		return fmt.Errorf("check record: %w", err)
	}
	if !exists {
		record := &models.EventRegistration{
			EventID:    intent.EventID,
			UserID:     intent.UserID,
			ResumePath: intent.Payload.ResumePath,
			BasicInfo:  models.StringMap(intent.Payload.BasicInfo),
			WebLinks:   models.StringMap(intent.Payload.WebLinks),
			Portfolio:  intent.Payload.Portfolio,
		}
		if err := s.records.Create(ctx, record); err != nil {
			return fmt.Errorf("replay record: %w", err)
		}
	}

	has, err := s.users.HasHistoryEntry(ctx, intent.UserID, intent.EventID)
	if err != nil {
		return fmt.Errorf("check history: %w", err)
	}
	if !has {
		entry := models.EventHistoryEntry{
			EventID:      intent.EventID,
			EventName:    intent.Payload.EventName,
			RegisteredAt: intent.CreatedAt,
			Status:       "registered",
			ResumePath:   intent.Payload.ResumePath,
			BasicInfo:    intent.Payload.BasicInfo,
			WebLinks:     intent.Payload.WebLinks,
			Portfolio:    intent.Payload.Portfolio,
		}
		if err := s.users.AppendHistory(ctx, intent.UserID, entry); err != nil && err != sql.ErrNoRows {
			return fmt.Errorf("replay history: %w", err)
		}
	}

	return s.intents.MarkCompleted(ctx, intent.ID)
}

// CreateRegistrationRequest describes the direct registration-record create payload.
type CreateRegistrationRequest struct {
	EventID string          `json:"event_id" validate:"required"`
	UserID  string          `json:"user_id" validate:"required"`
	Answers []models.Answer `json:"answers"`
}

// CreateRecord creates a registration record directly, validating the
// submitted answers against the event's current questions without requiring
// every question to be answered.
func (s *RegistrationService) CreateRecord(ctx context.Context, req CreateRegistrationRequest) (*models.EventRegistration, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}
	event, err := s.events.FindByID(ctx, req.EventID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	if err := ValidateAnswers(event.CustomQuestions, req.Answers, false); err != nil {
		return nil, err
	}
	exists, err := s.records.ExistsByEventAndUser(ctx, req.EventID, req.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check registration")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrAlreadyRegistered, "")
	}
	registration := &models.EventRegistration{
		EventID: req.EventID,
		UserID:  req.UserID,
		Answers: models.AnswerList(req.Answers),
	}
	if err := s.records.Create(ctx, registration); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save registration")
	}
	return registration, nil
}

// GetRecord returns the registration record for the (event, user) pair.
func (s *RegistrationService) GetRecord(ctx context.Context, eventID, userID string) (*models.EventRegistration, error) {
	registration, err := s.records.FindByEventAndUser(ctx, eventID, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}
	return registration, nil
}

// ListByEvent returns all registration records for an event.
func (s *RegistrationService) ListByEvent(ctx context.Context, eventID string) ([]models.EventRegistration, error) {
	if _, err := s.events.FindByID(ctx, eventID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	registrations, err := s.records.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registrations")
	}
	return registrations, nil
}

// UpdateAnswers replaces the answers of an existing record. Only the
// submitted answers are revalidated, against the event's current questions.
func (s *RegistrationService) UpdateAnswers(ctx context.Context, eventID, userID string, answers []models.Answer) (*models.EventRegistration, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	if err := ValidateAnswers(event.CustomQuestions, answers, false); err != nil {
		return nil, err
	}
	matched, err := s.records.UpdateAnswers(ctx, eventID, userID, models.AnswerList(answers))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update registration")
	}
	if matched == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
	}
	return s.GetRecord(ctx, eventID, userID)
}

// DeleteRecord removes the registration record for the pair.
func (s *RegistrationService) DeleteRecord(ctx context.Context, eventID, userID string) error {
	deleted, err := s.records.DeleteByEventAndUser(ctx, eventID, userID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete registration")
	}
	if deleted == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "registration not found")
	}
	return nil
}

func (s *RegistrationService) invalidateEvents(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, "events:*"); err != nil {
		s.logger.Warn("event cache invalidation failed", zap.Error(err))
	}
}
