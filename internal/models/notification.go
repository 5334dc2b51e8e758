package models

import "time"

// NotificationType enumerates the announcement kinds tied to an event.
type NotificationType string

const (
	NotificationTypeText         NotificationType = "text"
	NotificationTypePoster       NotificationType = "poster"
	NotificationTypeDeadline     NotificationType = "deadline"
	NotificationTypeCancellation NotificationType = "cancellation"
)

// Valid reports whether the type is one of the closed set.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationTypeText, NotificationTypePoster, NotificationTypeDeadline, NotificationTypeCancellation:
		return true
	default:
		return false
	}
}

// Notification is an immutable announcement appended per event and listed
// newest-first for display.
type Notification struct {
	ID             string           `db:"id" json:"_id"`
	EventID        string           `db:"event_id" json:"event_id"`
	Type           NotificationType `db:"type" json:"type"`
	Message        string           `db:"message" json:"message,omitempty"`
	PosterURL      string           `db:"poster_url" json:"poster_url,omitempty"`
	ExtendedDays   int              `db:"extended_days" json:"extended_days"`
	ExtendedMonths int              `db:"extended_months" json:"extended_months"`
	Reason         string           `db:"reason" json:"reason,omitempty"`
	CreatedAt      time.Time        `db:"created_at" json:"created_at"`
}
