package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types
const (
	BookingCreated       = "booking.created"
	BookingStatusChanged = "booking.status_changed"

	TransactionRecorded = "transaction.recorded"

	ReviewSubmitted = "review.submitted"
	ReviewModerated = "review.moderated"

	DisputeOpened   = "dispute.opened"
	DisputeResolved = "dispute.resolved"
)

// Stream names
const (
	BookingEventsStream     = "booking.events"
	TransactionEventsStream = "transaction.events"
	ReviewEventsStream      = "review.events"
	DisputeEventsStream     = "dispute.events"
)

// Event is the envelope written to every stream. ID is unique per publish and
// lets consumers drop redeliveries.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// Decode re-reads the loosely typed Data payload into v.
func (e Event) Decode(v any) error {
	raw, err := json.Marshal(e.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", e.Type, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s payload: %w", e.Type, err)
	}
	return nil
}

// Booking events
type BookingCreatedEvent struct {
	BookingID string `json:"bookingId"`
	AccountID string `json:"accountId"`
	ServiceID string `json:"serviceId"`
	Date      string `json:"date"`
	Time      string `json:"time"`
}

type BookingStatusChangedEvent struct {
	BookingID string `json:"bookingId"`
	AccountID string `json:"accountId"`
	From      string `json:"from"`
	To        string `json:"to"`
}

// Transaction events
type TransactionRecordedEvent struct {
	TransactionID string `json:"transactionId"`
	AccountID     string `json:"accountId"`
	BookingID     string `json:"bookingId"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	Status        string `json:"status"`
	FailureReason string `json:"failureReason,omitempty"`
}

// Review events
type ReviewSubmittedEvent struct {
	ReviewID  string `json:"reviewId"`
	AccountID string `json:"accountId"`
	ServiceID string `json:"serviceId"`
}

type ReviewModeratedEvent struct {
	ReviewID    string `json:"reviewId"`
	AccountID   string `json:"accountId"`
	Status      string `json:"status"`
	ModeratedBy string `json:"moderatedBy"`
}

// Dispute events
type DisputeEvent struct {
	DisputeID string `json:"disputeId"`
	AccountID string `json:"accountId"`
	ServiceID string `json:"serviceId"`
	Status    string `json:"status"`
}
