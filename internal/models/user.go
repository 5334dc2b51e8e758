package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleStudent UserRole = "STUDENT"
)

// EventHistoryEntry is one row of a user's append-only registration history.
type EventHistoryEntry struct {
	EventID      string            `json:"eventId"`
	EventName    string            `json:"eventName,omitempty"`
	RegisteredAt time.Time         `json:"registeredAt"`
	Status       string            `json:"status,omitempty"`
	ResumePath   string            `json:"resumePath,omitempty"`
	BasicInfo    map[string]string `json:"basicInfo,omitempty"`
	WebLinks     map[string]string `json:"webLinks,omitempty"`
	Portfolio    string            `json:"portfolio,omitempty"`
}

// HistoryList is a JSONB-persisted []EventHistoryEntry column.
type HistoryList []EventHistoryEntry

func (l HistoryList) Value() (driver.Value, error) {
	if l == nil {
		l = HistoryList{}
	}
	return json.Marshal(l)
}

func (l *HistoryList) Scan(value interface{}) error {
	*l = HistoryList{}
	return scanJSON(value, l)
}

// User represents an application user stored in the users table.
type User struct {
	ID               string      `db:"id" json:"_id"`
	Username         string      `db:"username" json:"username"`
	Email            string      `db:"email" json:"email"`
	PasswordHash     string      `db:"password_hash" json:"-"`
	Age              int         `db:"age" json:"age"`
	Phone            string      `db:"phone" json:"phone"`
	ProfilePic       string      `db:"profile_pic" json:"profilePic,omitempty"`
	Description      string      `db:"description" json:"description,omitempty"`
	Skills           StringList  `db:"skills" json:"skills"`
	Interests        StringList  `db:"interests" json:"interests"`
	Role             UserRole    `db:"role" json:"role"`
	EventsRegistered HistoryList `db:"events_registered" json:"eventsRegistered"`
	CreatedAt        time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time   `db:"updated_at" json:"updatedAt"`
}
