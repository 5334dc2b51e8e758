package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// EventMode distinguishes virtual from venue-bound events.
type EventMode string

const (
	EventModeVirtual  EventMode = "virtual"
	EventModePhysical EventMode = "physical"
)

// EventStatus is the lifecycle state of an event.
type EventStatus string

const (
	EventStatusUpcoming  EventStatus = "upcoming"
	EventStatusCompleted EventStatus = "completed"
	EventStatusCancelled EventStatus = "cancelled"
)

// QuestionType enumerates the supported custom question kinds.
type QuestionType string

const (
	QuestionTypeMCQ   QuestionType = "MCQ"
	QuestionTypeYesNo QuestionType = "Yes/No"
	QuestionTypeQA    QuestionType = "Question/Answer"
)

// AnswerType constrains free-form answers for Question/Answer questions.
type AnswerType string

const (
	AnswerTypeInteger AnswerType = "Integer"
	AnswerTypeText    AnswerType = "Text"
)

// CustomQuestion is an admin-defined question embedded in an event.
// Options is meaningful only for MCQ; AnswerType only for Question/Answer.
type CustomQuestion struct {
	Question   string       `json:"question"`
	Type       QuestionType `json:"type"`
	Options    []string     `json:"options,omitempty"`
	AnswerType AnswerType   `json:"answerType,omitempty"`
}

// EventContact holds the organizer contact embedded in an event.
type EventContact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// HighlightItem is a flexible highlight entry (speaker, agenda item, perk).
type HighlightItem struct {
	Type        string `json:"type"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Name        string `json:"name,omitempty"`
	Role        string `json:"role,omitempty"`
	Contact     string `json:"contact,omitempty"`
	Image       string `json:"image,omitempty"`
	Email       string `json:"email,omitempty"`
}

// FAQItem is a question/answer pair shown on the event page.
type FAQItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Sponsor describes an event sponsor.
type Sponsor struct {
	Name    string `json:"name"`
	Logo    string `json:"logo,omitempty"`
	Website string `json:"website,omitempty"`
}

// StringList is a JSONB-persisted []string column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(value interface{}) error {
	*l = StringList{}
	return scanJSON(value, l)
}

// QuestionList is a JSONB-persisted []CustomQuestion column.
type QuestionList []CustomQuestion

func (l QuestionList) Value() (driver.Value, error) {
	if l == nil {
		l = QuestionList{}
	}
	return json.Marshal(l)
}

func (l *QuestionList) Scan(value interface{}) error {
	*l = QuestionList{}
	return scanJSON(value, l)
}

// HighlightList is a JSONB-persisted []HighlightItem column.
type HighlightList []HighlightItem

func (l HighlightList) Value() (driver.Value, error) {
	if l == nil {
		l = HighlightList{}
	}
	return json.Marshal(l)
}

func (l *HighlightList) Scan(value interface{}) error {
	*l = HighlightList{}
	return scanJSON(value, l)
}

// FAQList is a JSONB-persisted []FAQItem column.
type FAQList []FAQItem

func (l FAQList) Value() (driver.Value, error) {
	if l == nil {
		l = FAQList{}
	}
	return json.Marshal(l)
}

func (l *FAQList) Scan(value interface{}) error {
	*l = FAQList{}
	return scanJSON(value, l)
}

// SponsorList is a JSONB-persisted []Sponsor column.
type SponsorList []Sponsor

func (l SponsorList) Value() (driver.Value, error) {
	if l == nil {
		l = SponsorList{}
	}
	return json.Marshal(l)
}

func (l *SponsorList) Scan(value interface{}) error {
	*l = SponsorList{}
	return scanJSON(value, l)
}

// ContactColumn is a JSONB-persisted EventContact column.
type ContactColumn EventContact

func (c ContactColumn) Value() (driver.Value, error) {
	return json.Marshal(c)
}

func (c *ContactColumn) Scan(value interface{}) error {
	*c = ContactColumn{}
	return scanJSON(value, c)
}

// Event is a schedulable activity users register for, with a dynamic
// requirement/question schema. The date/month/year triple mirrors the way
// deadlines are stored upstream: three string fields, not one timestamp.
type Event struct {
	ID                 string        `db:"id" json:"_id"`
	EventName          string        `db:"event_name" json:"eventName"`
	Tagline            string        `db:"tagline" json:"tagline,omitempty"`
	Category           string        `db:"category" json:"category"`
	Tags               StringList    `db:"tags" json:"tags"`
	Date               string        `db:"date" json:"date"`
	Month              string        `db:"month" json:"month"`
	Year               string        `db:"year" json:"year"`
	Location           string        `db:"location" json:"location"`
	Capacity           *int          `db:"capacity" json:"capacity,omitempty"`
	EventMode          EventMode     `db:"event_mode" json:"eventMode"`
	BannerImage        string        `db:"banner_image" json:"bannerImage,omitempty"`
	ThumbnailImage     string        `db:"thumbnail_image" json:"thumbnailImage,omitempty"`
	Description        string        `db:"description" json:"description"`
	Highlights         HighlightList `db:"highlights" json:"highlights"`
	FAQs               FAQList       `db:"faqs" json:"faqs"`
	Sponsors           SponsorList   `db:"sponsors" json:"sponsors"`
	Organizer          string        `db:"organizer" json:"organizer"`
	EventContact       ContactColumn `db:"event_contact" json:"eventContact"`
	WhoAreWe           string        `db:"who_are_we" json:"whoAreWe,omitempty"`
	Status             EventStatus   `db:"status" json:"status"`
	TotalRegistrations int           `db:"total_registrations" json:"totalRegistrations"`
	RegisteredUsers    StringList    `db:"registered_users" json:"registeredUsers"`
	RequireResume      bool          `db:"require_resume" json:"requireResume"`
	AllowedFileTypes   StringList    `db:"allowed_file_types" json:"allowedFileTypes"`
	RequireBasicInfo   bool          `db:"require_basic_info" json:"requireBasicInfo"`
	RequiredBasicInfo  StringList    `db:"required_basic_info" json:"requiredBasicInfo"`
	RequireWebLink     bool          `db:"require_web_link" json:"requireWebLink"`
	RequiredWebLinks   StringList    `db:"required_web_links" json:"requiredWebLinks"`
	RequireCoverLetter bool          `db:"require_cover_letter" json:"requireCoverLetter"`
	RequirePortfolio   bool          `db:"require_portfolio" json:"requirePortfolio"`
	CustomQuestions    QuestionList  `db:"custom_questions" json:"customQuestions"`
	Instructions       string        `db:"instructions" json:"instructions,omitempty"`
	Version            int64         `db:"version" json:"-"`
	CreatedAt          time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time     `db:"updated_at" json:"updatedAt"`
}

// IsRegistered reports whether the user id already appears in RegisteredUsers.
func (e *Event) IsRegistered(userID string) bool {
	for _, id := range e.RegisteredUsers {
		if id == userID {
			return true
		}
	}
	return false
}

// EventFilter captures filtering criteria for listing events.
type EventFilter struct {
	Category  string
	Status    EventStatus
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// Valid reports whether the question type is one of the closed set.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionTypeMCQ, QuestionTypeYesNo, QuestionTypeQA:
		return true
	default:
		return false
	}
}

// Valid reports whether the event mode is one of the closed set.
func (m EventMode) Valid() bool {
	return m == EventModeVirtual || m == EventModePhysical
}
