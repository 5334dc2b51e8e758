package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/coe-platform/coe-api/internal/models"
	appErrors "github.com/coe-platform/coe-api/pkg/errors"
)

const deadlineLayout = "2006-01-02"

type eventRepository interface {
	List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error)
	FindByID(ctx context.Context, id string) (*models.Event, error)
	FindByName(ctx context.Context, name string) (*models.Event, error)
	Create(ctx context.Context, event *models.Event) error
	Update(ctx context.Context, event *models.Event) error
	UpdateDeadline(ctx context.Context, id, date, month, year string) error
	Delete(ctx context.Context, id string) (int64, error)
}

type notificationAppender interface {
	Create(ctx context.Context, notification *models.Notification) error
}

type intentCleaner interface {
	DeleteByEvent(ctx context.Context, eventID string) error
}

// CreateEventRequest describes the event creation payload.
type CreateEventRequest struct {
	EventName          string                  `json:"eventName" validate:"required"`
	Tagline            string                  `json:"tagline"`
	Category           string                  `json:"category" validate:"required"`
	Tags               []string                `json:"tags"`
	Date               string                  `json:"date" validate:"required"`
	Month              string                  `json:"month" validate:"required"`
	Year               string                  `json:"year" validate:"required"`
	Location           string                  `json:"location"`
	Capacity           *int                    `json:"capacity"`
	EventMode          models.EventMode        `json:"eventMode" validate:"required"`
	BannerImage        string                  `json:"bannerImage"`
	ThumbnailImage     string                  `json:"thumbnailImage"`
	Description        string                  `json:"description" validate:"required"`
	Highlights         []models.HighlightItem  `json:"highlights"`
	FAQs               []models.FAQItem        `json:"faqs"`
	Sponsors           []models.Sponsor        `json:"sponsors"`
	Organizer          string                  `json:"organizer"`
	EventContact       models.EventContact     `json:"eventContact"`
	WhoAreWe           string                  `json:"whoAreWe"`
	RequireResume      bool                    `json:"requireResume"`
	AllowedFileTypes   []string                `json:"allowedFileTypes"`
	RequireBasicInfo   bool                    `json:"requireBasicInfo"`
	RequiredBasicInfo  []string                `json:"requiredBasicInfo"`
	RequireWebLink     bool                    `json:"requireWebLink"`
	RequiredWebLinks   []string                `json:"requiredWebLinks"`
	RequireCoverLetter bool                    `json:"requireCoverLetter"`
	RequirePortfolio   bool                    `json:"requirePortfolio"`
	CustomQuestions    []models.CustomQuestion `json:"customQuestions"`
	Instructions       string                  `json:"instructions"`
}

// UpdateEventRequest describes the partial event update payload. Nil fields
// keep their stored value.
type UpdateEventRequest struct {
	EventName          *string                  `json:"eventName"`
	Tagline            *string                  `json:"tagline"`
	Category           *string                  `json:"category"`
	Tags               *[]string                `json:"tags"`
	Location           *string                  `json:"location"`
	Capacity           *int                     `json:"capacity"`
	EventMode          *models.EventMode        `json:"eventMode"`
	BannerImage        *string                  `json:"bannerImage"`
	ThumbnailImage     *string                  `json:"thumbnailImage"`
	Description        *string                  `json:"description"`
	Highlights         *[]models.HighlightItem  `json:"highlights"`
	FAQs               *[]models.FAQItem        `json:"faqs"`
	Sponsors           *[]models.Sponsor        `json:"sponsors"`
	Organizer          *string                  `json:"organizer"`
	EventContact       *models.EventContact     `json:"eventContact"`
	WhoAreWe           *string                  `json:"whoAreWe"`
	Status             *models.EventStatus      `json:"status"`
	RequireResume      *bool                    `json:"requireResume"`
	AllowedFileTypes   *[]string                `json:"allowedFileTypes"`
	RequireBasicInfo   *bool                    `json:"requireBasicInfo"`
	RequiredBasicInfo  *[]string                `json:"requiredBasicInfo"`
	RequireWebLink     *bool                    `json:"requireWebLink"`
	RequiredWebLinks   *[]string                `json:"requiredWebLinks"`
	RequireCoverLetter *bool                    `json:"requireCoverLetter"`
	RequirePortfolio   *bool                    `json:"requirePortfolio"`
	CustomQuestions    *[]models.CustomQuestion `json:"customQuestions"`
	Instructions       *string                  `json:"instructions"`
}

// ExtendDeadlineRequest carries the new registration deadline.
type ExtendDeadlineRequest struct {
	NewDate string `json:"new_date" validate:"required"`
	Reason  string `json:"reason"`
}

// CancelEventRequest carries the optional cancellation reason.
type CancelEventRequest struct {
	Reason string `json:"reason"`
}

// EventService manages the event lifecycle: CRUD, cancellation with a
// farewell notification, and deadline extension.
type EventService struct {
	repo          eventRepository
	notifications notificationAppender
	intents       intentCleaner
	cache         *CacheService
	cacheTTL      time.Duration
	validator     *validator.Validate
	logger        *zap.Logger
	now           func() time.Time
}

// NewEventService constructs EventService.
func NewEventService(repo eventRepository, notifications notificationAppender, intents intentCleaner, cache *CacheService, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *EventService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &EventService{repo: repo, notifications: notifications, intents: intents, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger, now: time.Now}
}

// List returns events with pagination metadata.
func (s *EventService) List(ctx context.Context, filter models.EventFilter) ([]models.Event, *models.Pagination, error) {
	events, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return events, pagination, nil
}

// Get returns a single event, served from cache when possible.
func (s *EventService) Get(ctx context.Context, id string) (*models.Event, error) {
	key := "events:id:" + id
	var cached models.Event
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	if err := s.cache.Set(ctx, key, event, s.cacheTTL); err != nil {
		s.logger.Warn("event cache write failed", zap.String("event_id", id), zap.Error(err))
	}
	return event, nil
}

// GetByName returns a single event looked up by its exact name.
func (s *EventService) GetByName(ctx context.Context, name string) (*models.Event, error) {
	event, err := s.repo.FindByName(ctx, name)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	return event, nil
}

// Create validates and persists a new event.
func (s *EventService) Create(ctx context.Context, req CreateEventRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	if !req.EventMode.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("eventMode must be %q or %q", models.EventModeVirtual, models.EventModePhysical))
	}
	if req.Capacity != nil && *req.Capacity <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "capacity must be positive")
	}
	if err := validateQuestions(req.CustomQuestions); err != nil {
		return nil, err
	}

	event := &models.Event{
		EventName:          req.EventName,
		Tagline:            req.Tagline,
		Category:           req.Category,
		Tags:               models.StringList(req.Tags),
		Date:               req.Date,
		Month:              req.Month,
		Year:               req.Year,
		Location:           req.Location,
		Capacity:           req.Capacity,
		EventMode:          req.EventMode,
		BannerImage:        req.BannerImage,
		ThumbnailImage:     req.ThumbnailImage,
		Description:        req.Description,
		Highlights:         models.HighlightList(req.Highlights),
		FAQs:               models.FAQList(req.FAQs),
		Sponsors:           models.SponsorList(req.Sponsors),
		Organizer:          req.Organizer,
		EventContact:       models.ContactColumn(req.EventContact),
		WhoAreWe:           req.WhoAreWe,
		Status:             models.EventStatusUpcoming,
		RegisteredUsers:    models.StringList{},
		RequireResume:      req.RequireResume,
		AllowedFileTypes:   models.StringList(req.AllowedFileTypes),
		RequireBasicInfo:   req.RequireBasicInfo,
		RequiredBasicInfo:  models.StringList(req.RequiredBasicInfo),
		RequireWebLink:     req.RequireWebLink,
		RequiredWebLinks:   models.StringList(req.RequiredWebLinks),
		RequireCoverLetter: req.RequireCoverLetter,
		RequirePortfolio:   req.RequirePortfolio,
		CustomQuestions:    models.QuestionList(req.CustomQuestions),
		Instructions:       req.Instructions,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}
	s.invalidate(ctx)
	return event, nil
}

// Update applies a partial update to an event.
func (s *EventService) Update(ctx context.Context, id string, req UpdateEventRequest) (*models.Event, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}

	applyEventPatch(event, req)

	if !event.EventMode.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid eventMode")
	}
	if event.Capacity != nil && *event.Capacity <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "capacity must be positive")
	}
	if err := validateQuestions(event.CustomQuestions); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update event")
	}
	s.invalidate(ctx)
	return event, nil
}

// Cancel deletes an event and announces the cancellation using the name
// captured before deletion.
func (s *EventService) Cancel(ctx context.Context, id string, req CancelEventRequest) error {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	name := event.EventName

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete event")
	}
	if deleted == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "event not found")
	}

	if s.intents != nil {
		if err := s.intents.DeleteByEvent(ctx, id); err != nil {
			s.logger.Warn("intent cleanup failed", zap.String("event_id", id), zap.Error(err))
		}
	}

	notification := &models.Notification{
		EventID: id,
		Type:    models.NotificationTypeCancellation,
		Message: fmt.Sprintf("%s has been cancelled", name),
		Reason:  req.Reason,
	}
	if err := s.notifications.Create(ctx, notification); err != nil {
		s.logger.Warn("cancellation notification failed", zap.String("event_id", id), zap.Error(err))
	}

	s.invalidate(ctx)
	return nil
}

// ExtendDeadline moves the registration deadline forward. The new date must
// be today or later; the stored date triple is rewritten and a deadline
// notification records how far the deadline moved.
func (s *EventService) ExtendDeadline(ctx context.Context, id string, req ExtendDeadlineRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid deadline payload")
	}
	newDate, err := time.Parse(deadlineLayout, req.NewDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "new_date must be formatted YYYY-MM-DD")
	}
	today := s.now().UTC().Truncate(24 * time.Hour)
	if newDate.Before(today) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "new_date must not be in the past")
	}

	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}

	extendedDays, extendedMonths := 0, 0
	if current, ok := parseDateTriple(event.Date, event.Month, event.Year); ok {
		extendedDays = int(newDate.Sub(current).Hours() / 24)
		extendedMonths = (newDate.Year()-current.Year())*12 + int(newDate.Month()) - int(current.Month())
	} else {
		s.logger.Warn("stored deadline unparsable, extension deltas omitted",
			zap.String("event_id", id), zap.String("date", event.Date),
			zap.String("month", event.Month), zap.String("year", event.Year))
	}

	date := fmt.Sprintf("%d", newDate.Day())
	month := newDate.Month().String()
	year := fmt.Sprintf("%d", newDate.Year())
	if err := s.repo.UpdateDeadline(ctx, id, date, month, year); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update deadline")
	}
	event.Date = date
	event.Month = month
	event.Year = year

	notification := &models.Notification{
		EventID:        id,
		Type:           models.NotificationTypeDeadline,
		Message:        fmt.Sprintf("registration deadline for %s extended to %s %s %s", event.EventName, date, month, year),
		ExtendedDays:   extendedDays,
		ExtendedMonths: extendedMonths,
		Reason:         req.Reason,
	}
	if err := s.notifications.Create(ctx, notification); err != nil {
		s.logger.Warn("deadline notification failed", zap.String("event_id", id), zap.Error(err))
	}

	s.invalidate(ctx)
	return event, nil
}

// Participants resolves the registered users of an event.
func (s *EventService) Participants(ctx context.Context, id string) ([]string, error) {
	event, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return event.RegisteredUsers, nil
}

func (s *EventService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, "events:*"); err != nil {
		s.logger.Warn("event cache invalidation failed", zap.Error(err))
	}
}

func validateQuestions(questions []models.CustomQuestion) error {
	for i, question := range questions {
		if strings.TrimSpace(question.Question) == "" {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("question %d has no text", i))
		}
		if !question.Type.Valid() {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("question %d has unsupported type %q", i, question.Type))
		}
		if question.Type == models.QuestionTypeMCQ && len(question.Options) == 0 {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("question %d needs at least one option", i))
		}
		if question.Type == models.QuestionTypeQA &&
			question.AnswerType != "" &&
			question.AnswerType != models.AnswerTypeInteger &&
			question.AnswerType != models.AnswerTypeText {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("question %d has unsupported answer type %q", i, question.AnswerType))
		}
	}
	return nil
}

func parseDateTriple(date, month, year string) (time.Time, bool) {
	parsed, err := time.Parse("2 January 2006", fmt.Sprintf("%s %s %s", strings.TrimSpace(date), strings.TrimSpace(month), strings.TrimSpace(year)))
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

func applyEventPatch(event *models.Event, req UpdateEventRequest) {
	if req.EventName != nil {
		event.EventName = *req.EventName
	}
	if req.Tagline != nil {
		event.Tagline = *req.Tagline
	}
	if req.Category != nil {
		event.Category = *req.Category
	}
	if req.Tags != nil {
		event.Tags = models.StringList(*req.Tags)
	}
	if req.Location != nil {
		event.Location = *req.Location
	}
	if req.Capacity != nil {
		event.Capacity = req.Capacity
	}
	if req.EventMode != nil {
		event.EventMode = *req.EventMode
	}
	if req.BannerImage != nil {
		event.BannerImage = *req.BannerImage
	}
	if req.ThumbnailImage != nil {
		event.ThumbnailImage = *req.ThumbnailImage
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.Highlights != nil {
		event.Highlights = models.HighlightList(*req.Highlights)
	}
	if req.FAQs != nil {
		event.FAQs = models.FAQList(*req.FAQs)
	}
	if req.Sponsors != nil {
		event.Sponsors = models.SponsorList(*req.Sponsors)
	}
	if req.Organizer != nil {
		event.Organizer = *req.Organizer
	}
	if req.EventContact != nil {
		event.EventContact = models.ContactColumn(*req.EventContact)
	}
	if req.WhoAreWe != nil {
		event.WhoAreWe = *req.WhoAreWe
	}
	if req.Status != nil {
		event.Status = *req.Status
	}
	if req.RequireResume != nil {
		event.RequireResume = *req.RequireResume
	}
	if req.AllowedFileTypes != nil {
		event.AllowedFileTypes = models.StringList(*req.AllowedFileTypes)
	}
	if req.RequireBasicInfo != nil {
		event.RequireBasicInfo = *req.RequireBasicInfo
	}
	if req.RequiredBasicInfo != nil {
		event.RequiredBasicInfo = models.StringList(*req.RequiredBasicInfo)
	}
	if req.RequireWebLink != nil {
		event.RequireWebLink = *req.RequireWebLink
	}
	if req.RequiredWebLinks != nil {
		event.RequiredWebLinks = models.StringList(*req.RequiredWebLinks)
	}
	if req.RequireCoverLetter != nil {
		event.RequireCoverLetter = *req.RequireCoverLetter
	}
	if req.RequirePortfolio != nil {
		event.RequirePortfolio = *req.RequirePortfolio
	}
	if req.CustomQuestions != nil {
		event.CustomQuestions = models.QuestionList(*req.CustomQuestions)
	}
	if req.Instructions != nil {
		event.Instructions = *req.Instructions
	}
}
