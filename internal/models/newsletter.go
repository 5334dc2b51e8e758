package models

import "time"

// NewsletterSubscription records a single email opted in to the newsletter.
type NewsletterSubscription struct {
	ID           string    `db:"id" json:"_id"`
	Email        string    `db:"email" json:"email"`
	SubscribedAt time.Time `db:"subscribed_at" json:"subscribed_at"`
}
