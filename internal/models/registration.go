package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// Answer binds a submitted answer to a question by position. The index is
// revalidated against the owning event's current question set on every use,
// never stored as a resolved reference.
type Answer struct {
	Index  int    `json:"index"`
	Answer string `json:"answer"`
}

// AnswerList is a JSONB-persisted []Answer column.
type AnswerList []Answer

func (l AnswerList) Value() (driver.Value, error) {
	if l == nil {
		l = AnswerList{}
	}
	return json.Marshal(l)
}

func (l *AnswerList) Scan(value interface{}) error {
	*l = AnswerList{}
	return scanJSON(value, l)
}

// StringMap is a JSONB-persisted map[string]string column.
type StringMap map[string]string

func (m StringMap) Value() (driver.Value, error) {
	if m == nil {
		m = StringMap{}
	}
	return json.Marshal(m)
}

func (m *StringMap) Scan(value interface{}) error {
	*m = StringMap{}
	return scanJSON(value, m)
}

// EventRegistration is the first-class registration record keyed by the
// (event_id, user_id) pair. Pair uniqueness is an application convention.
type EventRegistration struct {
	ID          string     `db:"id" json:"_id"`
	EventID     string     `db:"event_id" json:"event_id"`
	UserID      string     `db:"user_id" json:"user_id"`
	Answers     AnswerList `db:"answers" json:"answers"`
	ResumePath  string     `db:"resume_path" json:"resume_path,omitempty"`
	BasicInfo   StringMap  `db:"basic_info" json:"basic_info,omitempty"`
	WebLinks    StringMap  `db:"web_links" json:"web_links,omitempty"`
	Portfolio   string     `db:"portfolio" json:"portfolio,omitempty"`
	CoverLetter string     `db:"cover_letter" json:"cover_letter,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// IntentStatus tracks the lifecycle of a registration intent.
type IntentStatus string

const (
	IntentStatusPending   IntentStatus = "pending"
	IntentStatusCompleted IntentStatus = "completed"
)

// IntentPayload snapshots everything needed to replay a registration's
// dependent mutations.
type IntentPayload struct {
	EventName  string            `json:"eventName"`
	ResumePath string            `json:"resumePath,omitempty"`
	BasicInfo  map[string]string `json:"basicInfo,omitempty"`
	WebLinks   map[string]string `json:"webLinks,omitempty"`
	Portfolio  string            `json:"portfolio,omitempty"`
}

func (p IntentPayload) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *IntentPayload) Scan(value interface{}) error {
	*p = IntentPayload{}
	return scanJSON(value, p)
}

// RegistrationIntent is written before the event and user documents are
// mutated; the sweep replays intents stuck in pending.
type RegistrationIntent struct {
	ID          string        `db:"id" json:"id"`
	EventID     string        `db:"event_id" json:"event_id"`
	UserID      string        `db:"user_id" json:"user_id"`
	Payload     IntentPayload `db:"payload" json:"payload"`
	Status      IntentStatus  `db:"status" json:"status"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	CompletedAt *time.Time    `db:"completed_at" json:"completed_at,omitempty"`
}
