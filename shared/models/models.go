package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleCustomer   Role = "customer"
	RoleProvider   Role = "provider"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// AdminRoles are the roles allowed into moderation and dashboard routes.
var AdminRoles = []Role{RoleAdmin, RoleSuperAdmin}

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleProvider, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

type Account struct {
	ID           string    `gorm:"primaryKey;type:varchar(32)" json:"id"`
	Username     string    `gorm:"type:varchar(50);not null;uniqueIndex" json:"username"`
	Email        *string   `gorm:"type:varchar(255);uniqueIndex" json:"email,omitempty"`
	PasswordHash string    `gorm:"type:varchar(100);not null" json:"-"`
	Role         Role      `gorm:"type:varchar(20);not null;index" json:"role"`
	CreatedAt    time.Time `json:"createdTimestamp"`
	UpdatedAt    time.Time `json:"updatedTimestamp"`
}

type Category struct {
	ID        string    `gorm:"primaryKey;type:varchar(32)" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`
	CreatedAt time.Time `json:"createdTimestamp"`
}

type Company struct {
	ID        string    `gorm:"primaryKey;type:varchar(32)" json:"id"`
	OwnerID   string    `gorm:"type:varchar(32);not null;index" json:"ownerId"`
	Name      string    `gorm:"type:varchar(150);not null" json:"name"`
	Phone     string    `gorm:"type:varchar(32)" json:"phone,omitempty"`
	Location  string    `gorm:"type:varchar(255)" json:"location,omitempty"`
	CreatedAt time.Time `json:"createdTimestamp"`
	UpdatedAt time.Time `json:"updatedTimestamp"`
}

type Service struct {
	ID          string          `gorm:"primaryKey;type:varchar(32)"`
	Name        string          `gorm:"type:varchar(100);not null;index"`
	Description string          `gorm:"type:text"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	CategoryID  string          `gorm:"type:varchar(32);not null;index"`
	CompanyID   string          `gorm:"type:varchar(32);not null;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusPaid      BookingStatus = "paid"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Rank orders the forward path pending < confirmed < paid < completed.
// Cancelled sits outside the path and reports -1.
func (s BookingStatus) Rank() int {
	switch s {
	case BookingStatusPending:
		return 0
	case BookingStatusConfirmed:
		return 1
	case BookingStatusPaid:
		return 2
	case BookingStatusCompleted:
		return 3
	}
	return -1
}

type Booking struct {
	ID         string        `gorm:"primaryKey;type:varchar(32)" json:"id"`
	AccountID  string        `gorm:"type:varchar(32);not null;index" json:"accountId"`
	ServiceID  string        `gorm:"type:varchar(32);not null;index" json:"serviceId"`
	Date       string        `gorm:"type:varchar(10);not null" json:"date"`
	Time       string        `gorm:"type:varchar(5);not null" json:"time"`
	Recurrence string        `gorm:"type:varchar(20)" json:"recurrence,omitempty"`
	Status     BookingStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Version    int64         `gorm:"not null;default:0" json:"-"`
	CreatedAt  time.Time     `json:"createdTimestamp"`
	UpdatedAt  time.Time     `json:"updatedTimestamp"`

	// PaymentClaim is the id of the transaction currently charging this booking.
	PaymentClaim     string     `gorm:"type:varchar(32)" json:"-"`
	PaymentClaimedAt *time.Time `json:"-"`
}

// PaymentClaimTTL is how long a charge attempt may hold a booking before
// another attempt may take it over.
const PaymentClaimTTL = 10 * time.Minute

// PaymentInProgress reports whether a charge attempt holds the booking at now.
func (b *Booking) PaymentInProgress(now time.Time) bool {
	return b.PaymentClaim != "" && b.PaymentClaimedAt != nil && now.Sub(*b.PaymentClaimedAt) < PaymentClaimTTL
}

type TransactionStatus string

const (
	TransactionStatusSuccess TransactionStatus = "success"
	TransactionStatusFailed  TransactionStatus = "failed"
)

// Transaction is a ledger entry. Rows are written once and never updated.
type Transaction struct {
	ID            string            `gorm:"primaryKey;type:varchar(32)" json:"id"`
	AccountID     string            `gorm:"type:varchar(32);not null;index" json:"accountId"`
	ServiceID     string            `gorm:"type:varchar(32);not null;index" json:"serviceId"`
	BookingID     string            `gorm:"type:varchar(32);not null;index" json:"bookingId"`
	Amount        int64             `gorm:"not null" json:"amount"`
	Currency      string            `gorm:"type:varchar(3);not null" json:"currency"`
	Status        TransactionStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	ChargeID      string            `gorm:"type:varchar(100)" json:"chargeId,omitempty"`
	FailureReason string            `gorm:"type:text" json:"failureReason,omitempty"`
	CreatedAt     time.Time         `json:"createdTimestamp"`
}

type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
)

type Review struct {
	ID          string       `gorm:"primaryKey;type:varchar(32)" json:"id"`
	AccountID   string       `gorm:"type:varchar(32);not null;index" json:"accountId"`
	ServiceID   string       `gorm:"type:varchar(32);not null;index" json:"serviceId"`
	Content     string       `gorm:"type:text;not null" json:"content"`
	Rating      *int         `json:"rating,omitempty"`
	Status      ReviewStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	ModeratedBy string       `gorm:"type:varchar(32)" json:"moderatedBy,omitempty"`
	Version     int64        `gorm:"not null;default:0" json:"-"`
	CreatedAt   time.Time    `json:"createdTimestamp"`
	UpdatedAt   time.Time    `json:"updatedTimestamp"`
}

type DisputeStatus string

const (
	DisputeStatusOpen     DisputeStatus = "open"
	DisputeStatusResolved DisputeStatus = "resolved"
)

type Dispute struct {
	ID          string        `gorm:"primaryKey;type:varchar(32)" json:"id"`
	AccountID   string        `gorm:"type:varchar(32);not null;index" json:"accountId"`
	ServiceID   string        `gorm:"type:varchar(32);not null;index" json:"serviceId"`
	Description string        `gorm:"type:text;not null" json:"description"`
	Status      DisputeStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Version     int64         `gorm:"not null;default:0" json:"-"`
	CreatedAt   time.Time     `json:"createdTimestamp"`
	UpdatedAt   time.Time     `json:"updatedTimestamp"`
}

// Notification is projected from a stream event; EventID makes the projection
// idempotent across redeliveries.
type Notification struct {
	ID        string    `gorm:"primaryKey;type:varchar(32)" json:"id"`
	AccountID string    `gorm:"type:varchar(32);not null;index" json:"-"`
	EventID   *string   `gorm:"type:varchar(128);uniqueIndex" json:"-"`
	Title     string    `gorm:"type:varchar(100);not null" json:"title"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	Read      bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt time.Time `json:"createdTimestamp"`
}

type SupportTicket struct {
	ID        string    `gorm:"primaryKey;type:varchar(32)" json:"id"`
	AccountID string    `gorm:"type:varchar(32);not null;index" json:"accountId"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	CreatedAt time.Time `json:"createdTimestamp"`
}
