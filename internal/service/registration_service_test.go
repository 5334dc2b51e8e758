package service

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/coe-platform/coe-api/internal/models"
	appErrors "github.com/coe-platform/coe-api/pkg/errors"
)

type mockEventStore struct {
	events      map[string]*models.Event
	contended   int
	updateCalls int
}

func (m *mockEventStore) FindByID(ctx context.Context, id string) (*models.Event, error) {
	if event, ok := m.events[id]; ok {
		copied := *event
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEventStore) UpdateRegistrants(ctx context.Context, event *models.Event, expectedVersion int64) (bool, error) {
	m.updateCalls++
	stored, ok := m.events[event.ID]
	if !ok {
		return false, nil
	}
	if m.contended > 0 {
		m.contended--
		stored.Version++
		return false, nil
	}
	if stored.Version != expectedVersion {
		return false, nil
	}
	stored.RegisteredUsers = event.RegisteredUsers
	stored.TotalRegistrations = event.TotalRegistrations
	stored.Version++
	return true, nil
}

var assertErr = appErrors.New("BOOM", 500, "boom")

type mockUserStore struct {
	users    map[string]*models.User
	appended []models.EventHistoryEntry
	history  map[string]bool
}

func (m *mockUserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := m.users[id]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserStore) AppendHistory(ctx context.Context, userID string, entry models.EventHistoryEntry) error {
	if _, ok := m.users[userID]; !ok {
		return sql.ErrNoRows
	}
	m.appended = append(m.appended, entry)
	if m.history == nil {
		m.history = make(map[string]bool)
	}
	m.history[userID+"/"+entry.EventID] = true
	return nil
}

func (m *mockUserStore) HasHistoryEntry(ctx context.Context, userID, eventID string) (bool, error) {
	return m.history[userID+"/"+eventID], nil
}

type mockRecordStore struct {
	records    map[string]*models.EventRegistration
	failCreate bool
}

func (m *mockRecordStore) key(eventID, userID string) string { return eventID + "/" + userID }

func (m *mockRecordStore) Create(ctx context.Context, registration *models.EventRegistration) error {
	if m.failCreate {
		return assertErr
	}
	if m.records == nil {
		m.records = make(map[string]*models.EventRegistration)
	}
	registration.ID = "reg-" + registration.UserID
	m.records[m.key(registration.EventID, registration.UserID)] = registration
	return nil
}

func (m *mockRecordStore) FindByEventAndUser(ctx context.Context, eventID, userID string) (*models.EventRegistration, error) {
	if record, ok := m.records[m.key(eventID, userID)]; ok {
		return record, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockRecordStore) ListByEvent(ctx context.Context, eventID string) ([]models.EventRegistration, error) {
	var out []models.EventRegistration
	for _, record := range m.records {
		if record.EventID == eventID {
			out = append(out, *record)
		}
	}
	return out, nil
}

func (m *mockRecordStore) UpdateAnswers(ctx context.Context, eventID, userID string, answers models.AnswerList) (int64, error) {
	record, ok := m.records[m.key(eventID, userID)]
	if !ok {
		return 0, nil
	}
	record.Answers = answers
	return 1, nil
}

func (m *mockRecordStore) ExistsByEventAndUser(ctx context.Context, eventID, userID string) (bool, error) {
	_, ok := m.records[m.key(eventID, userID)]
	return ok, nil
}

func (m *mockRecordStore) DeleteByEventAndUser(ctx context.Context, eventID, userID string) (int64, error) {
	if _, ok := m.records[m.key(eventID, userID)]; !ok {
		return 0, nil
	}
	delete(m.records, m.key(eventID, userID))
	return 1, nil
}

type mockIntentStore struct {
	intents   map[string]*models.RegistrationIntent
	completed []string
}

func (m *mockIntentStore) Create(ctx context.Context, intent *models.RegistrationIntent) error {
	if m.intents == nil {
		m.intents = make(map[string]*models.RegistrationIntent)
	}
	intent.ID = "intent-" + intent.UserID
	intent.Status = models.IntentStatusPending
	if intent.CreatedAt.IsZero() {
		intent.CreatedAt = time.Now().UTC()
	}
	m.intents[intent.ID] = intent
	return nil
}

func (m *mockIntentStore) MarkCompleted(ctx context.Context, id string) error {
	if intent, ok := m.intents[id]; ok {
		intent.Status = models.IntentStatusCompleted
	}
	m.completed = append(m.completed, id)
	return nil
}

func (m *mockIntentStore) ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]models.RegistrationIntent, error) {
	var out []models.RegistrationIntent
	for _, intent := range m.intents {
		if intent.Status == models.IntentStatusPending && intent.CreatedAt.Before(cutoff) {
			out = append(out, *intent)
		}
	}
	return out, nil
}

type mockResumeStore struct {
	saved map[string][]byte
}

func (m *mockResumeStore) SaveStream(filename string, r io.Reader) (string, error) {
	if m.saved == nil {
		m.saved = make(map[string][]byte)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.saved[filename] = data
	return filename, nil
}

func openEvent() *models.Event {
	return &models.Event{
		ID:              "event-1",
		EventName:       "Hackathon",
		Status:          models.EventStatusUpcoming,
		RegisteredUsers: models.StringList{},
		RequireResume:   true,
		AllowedFileTypes: models.StringList{
			"pdf",
		},
		CustomQuestions: models.QuestionList{
			{Question: "First time?", Type: models.QuestionTypeYesNo},
		},
		Version: 1,
	}
}

func registrationFixture() (*RegistrationService, *mockEventStore, *mockUserStore, *mockRecordStore, *mockIntentStore, *mockResumeStore) {
	events := &mockEventStore{events: map[string]*models.Event{"event-1": openEvent()}}
	users := &mockUserStore{users: map[string]*models.User{"user-1": {ID: "user-1", Username: "ana"}}}
	records := &mockRecordStore{}
	intents := &mockIntentStore{}
	resumes := &mockResumeStore{}
	svc := NewRegistrationService(events, users, records, intents, resumes, nil, validator.New(), zap.NewNop())
	return svc, events, users, records, intents, resumes
}

func validRegistration() RegistrationSubmission {
	return RegistrationSubmission{
		UserID:         "user-1",
		ResumeFilename: "resume.pdf",
		Answers:        []models.Answer{{Index: 0, Answer: "Yes"}},
	}
}

func TestRegistrationServiceRegister(t *testing.T) {
	svc, events, users, records, intents, resumes := registrationFixture()

	registration, err := svc.Register(context.Background(), "event-1", validRegistration(),
		bytes.NewReader([]byte("resume bytes")))
	require.NoError(t, err)
	assert.Equal(t, "resumes/event-1/user-1.pdf", registration.ResumePath)

	stored := events.events["event-1"]
	assert.Equal(t, models.StringList{"user-1"}, stored.RegisteredUsers)
	assert.Equal(t, 1, stored.TotalRegistrations)
	assert.Equal(t, int64(2), stored.Version)

	assert.Contains(t, records.records, "event-1/user-1")
	require.Len(t, users.appended, 1)
	assert.Equal(t, "Hackathon", users.appended[0].EventName)
	assert.Len(t, intents.completed, 1)
	assert.Contains(t, resumes.saved, "resumes/event-1/user-1.pdf")
}

func TestRegistrationServiceRegisterEventNotFound(t *testing.T) {
	svc, _, _, _, _, _ := registrationFixture()

	_, err := svc.Register(context.Background(), "ghost", validRegistration(), nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRegistrationServiceRegisterClosedEvent(t *testing.T) {
	svc, events, _, _, _, _ := registrationFixture()
	events.events["event-1"].Status = models.EventStatusCompleted

	_, err := svc.Register(context.Background(), "event-1", validRegistration(), nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrRegistrationClosed.Code, appErrors.FromError(err).Code)
}

func TestRegistrationServiceRegisterCancelledEvent(t *testing.T) {
	svc, events, _, _, _, _ := registrationFixture()
	events.events["event-1"].Status = models.EventStatusCancelled

	_, err := svc.Register(context.Background(), "event-1", validRegistration(), nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrRegistrationClosed.Code, appErrors.FromError(err).Code)
}

func TestRegistrationServiceRegisterAtCapacity(t *testing.T) {
	svc, events, _, _, _, _ := registrationFixture()
	capacity := 1
	events.events["event-1"].Capacity = &capacity
	events.events["event-1"].TotalRegistrations = 1
	events.events["event-1"].RegisteredUsers = models.StringList{"other"}

	_, err := svc.Register(context.Background(), "event-1", validRegistration(), nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrRegistrationClosed.Code, appErrors.FromError(err).Code)
}

func TestRegistrationServiceRegisterAlreadyRegistered(t *testing.T) {
	svc, events, _, _, intents, _ := registrationFixture()
	events.events["event-1"].RegisteredUsers = models.StringList{"user-1"}
	events.events["event-1"].TotalRegistrations = 1

	_, err := svc.Register(context.Background(), "event-1", validRegistration(), nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyRegistered.Code, appErrors.FromError(err).Code)
	assert.Empty(t, intents.intents)
}

func TestRegistrationServiceRegisterPrecedenceClosedBeforeAlreadyRegistered(t *testing.T) {
	svc, events, _, _, _, _ := registrationFixture()
	events.events["event-1"].Status = models.EventStatusCompleted
	events.events["event-1"].RegisteredUsers = models.StringList{"user-1"}

	_, err := svc.Register(context.Background(), "event-1", validRegistration(), nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrRegistrationClosed.Code, appErrors.FromError(err).Code)
}

func TestRegistrationServiceRegisterInvalidSubmissionLeavesStateUntouched(t *testing.T) {
	svc, events, users, records, intents, _ := registrationFixture()

	submission := validRegistration()
	submission.Answers = []models.Answer{{Index: 0, Answer: "maybe"}}
	_, err := svc.Register(context.Background(), "event-1", submission, bytes.NewReader([]byte("x")))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	assert.Empty(t, events.events["event-1"].RegisteredUsers)
	assert.Empty(t, records.records)
	assert.Empty(t, intents.intents)
	assert.Empty(t, users.appended)
}

func TestRegistrationServiceRegisterRetriesOnVersionConflict(t *testing.T) {
	svc, events, _, _, _, _ := registrationFixture()
	events.contended = 1

	_, err := svc.Register(context.Background(), "event-1", validRegistration(),
		bytes.NewReader([]byte("resume bytes")))
	require.NoError(t, err)
	assert.Equal(t, 2, events.updateCalls)
	assert.Equal(t, models.StringList{"user-1"}, events.events["event-1"].RegisteredUsers)
}

func TestRegistrationServiceRegisterGivesUpAfterRetries(t *testing.T) {
	svc, events, _, _, _, _ := registrationFixture()
	events.contended = registrantUpdateRetries + 1

	_, err := svc.Register(context.Background(), "event-1", validRegistration(),
		bytes.NewReader([]byte("resume bytes")))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestRegistrationServiceRegisterRecordFailureLeavesIntentPending(t *testing.T) {
	svc, events, _, records, intents, _ := registrationFixture()
	records.failCreate = true

	_, err := svc.Register(context.Background(), "event-1", validRegistration(),
		bytes.NewReader([]byte("resume bytes")))
	require.Error(t, err)

	// The event mutation landed and the intent stays pending for the sweep.
	assert.Equal(t, models.StringList{"user-1"}, events.events["event-1"].RegisteredUsers)
	require.Len(t, intents.intents, 1)
	for _, intent := range intents.intents {
		assert.Equal(t, models.IntentStatusPending, intent.Status)
	}
}

func TestRegistrationServiceReplayPendingIntents(t *testing.T) {
	svc, events, users, records, intents, _ := registrationFixture()

	intents.intents = map[string]*models.RegistrationIntent{
		"intent-1": {
			ID: "intent-1", EventID: "event-1", UserID: "user-1",
			Payload:   models.IntentPayload{EventName: "Hackathon", ResumePath: "resumes/event-1/user-1.pdf"},
			Status:    models.IntentStatusPending,
			CreatedAt: time.Now().Add(-time.Minute),
		},
	}

	replayed, err := svc.ReplayPendingIntents(context.Background(), 30*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 1, replayed)

	assert.Equal(t, models.StringList{"user-1"}, events.events["event-1"].RegisteredUsers)
	assert.Contains(t, records.records, "event-1/user-1")
	require.Len(t, users.appended, 1)
	assert.Equal(t, models.IntentStatusCompleted, intents.intents["intent-1"].Status)
}

func TestRegistrationServiceReplaySkipsFreshIntents(t *testing.T) {
	svc, _, _, records, intents, _ := registrationFixture()

	intents.intents = map[string]*models.RegistrationIntent{
		"intent-1": {
			ID: "intent-1", EventID: "event-1", UserID: "user-1",
			Status:    models.IntentStatusPending,
			CreatedAt: time.Now(),
		},
	}

	replayed, err := svc.ReplayPendingIntents(context.Background(), 30*time.Second)
	require.NoError(t, err)
	assert.Zero(t, replayed)
	assert.Empty(t, records.records)
}

func TestRegistrationServiceReplayCompletesIntentForDeletedEvent(t *testing.T) {
	svc, events, _, _, intents, _ := registrationFixture()
	delete(events.events, "event-1")

	intents.intents = map[string]*models.RegistrationIntent{
		"intent-1": {
			ID: "intent-1", EventID: "event-1", UserID: "user-1",
			Status:    models.IntentStatusPending,
			CreatedAt: time.Now().Add(-time.Minute),
		},
	}

	replayed, err := svc.ReplayPendingIntents(context.Background(), 30*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 1, replayed)
	assert.Equal(t, models.IntentStatusCompleted, intents.intents["intent-1"].Status)
}

func TestRegistrationServiceCreateRecord(t *testing.T) {
	svc, _, _, records, _, _ := registrationFixture()

	registration, err := svc.CreateRecord(context.Background(), CreateRegistrationRequest{
		EventID: "event-1", UserID: "user-2",
		Answers: []models.Answer{{Index: 0, Answer: "No"}},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, registration.ID)
	assert.Contains(t, records.records, "event-1/user-2")
}

func TestRegistrationServiceCreateRecordDuplicatePair(t *testing.T) {
	svc, _, _, _, _, _ := registrationFixture()

	_, err := svc.CreateRecord(context.Background(), CreateRegistrationRequest{EventID: "event-1", UserID: "user-2"})
	require.NoError(t, err)
	_, err = svc.CreateRecord(context.Background(), CreateRegistrationRequest{EventID: "event-1", UserID: "user-2"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyRegistered.Code, appErrors.FromError(err).Code)
}

func TestRegistrationServiceCreateRecordAllowsPartialAnswers(t *testing.T) {
	svc, events, _, _, _, _ := registrationFixture()
	events.events["event-1"].CustomQuestions = models.QuestionList{
		{Question: "First time?", Type: models.QuestionTypeYesNo},
		{Question: "Track?", Type: models.QuestionTypeMCQ, Options: []string{"Web"}},
	}

	_, err := svc.CreateRecord(context.Background(), CreateRegistrationRequest{
		EventID: "event-1", UserID: "user-2",
		Answers: []models.Answer{{Index: 1, Answer: "Web"}},
	})
	assert.NoError(t, err)
}

func TestRegistrationServiceUpdateAnswersRevalidates(t *testing.T) {
	svc, _, _, _, _, _ := registrationFixture()
	_, err := svc.CreateRecord(context.Background(), CreateRegistrationRequest{EventID: "event-1", UserID: "user-2"})
	require.NoError(t, err)

	_, err = svc.UpdateAnswers(context.Background(), "event-1", "user-2",
		[]models.Answer{{Index: 5, Answer: "x"}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	updated, err := svc.UpdateAnswers(context.Background(), "event-1", "user-2",
		[]models.Answer{{Index: 0, Answer: "No"}})
	require.NoError(t, err)
	assert.Equal(t, "No", updated.Answers[0].Answer)
}

func TestRegistrationServiceUpdateAnswersMissingRecord(t *testing.T) {
	svc, _, _, _, _, _ := registrationFixture()

	_, err := svc.UpdateAnswers(context.Background(), "event-1", "ghost",
		[]models.Answer{{Index: 0, Answer: "No"}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRegistrationServiceDeleteRecordMissing(t *testing.T) {
	svc, _, _, _, _, _ := registrationFixture()

	err := svc.DeleteRecord(context.Background(), "event-1", "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
