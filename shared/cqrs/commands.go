package cqrs

import (
	"github.com/servicehub/marketplace/shared/auth"
	"github.com/servicehub/marketplace/shared/models"
	"github.com/shopspring/decimal"
)

// ---------- Accounts ----------

type RegisterCommand struct {
	Username string
	Email    string
	Password string
	Role     models.Role
}

type LoginCommand struct {
	Username string
	Password string
}

type RefreshTokenCommand struct {
	Token string
}

type ChangePasswordCommand struct {
	AccountID       string
	CurrentPassword string
	NewPassword     string
}

type UpdateRoleCommand struct {
	AccountID string
	Role      models.Role
}

type CreateAdminCommand struct {
	Username string
	Email    string
	Password string
}

// ---------- Catalog ----------

type CreateCategoryCommand struct {
	Name string
}

type DeleteCategoryCommand struct {
	CategoryID string
}

type CreateCompanyCommand struct {
	Actor    auth.Identity
	Name     string
	Phone    string
	Location string
}

type CreateServiceCommand struct {
	Actor       auth.Identity
	Name        string
	Description string
	Price       decimal.Decimal
	CategoryID  string
	CompanyID   string
}

type UpdateServiceCommand struct {
	Actor       auth.Identity
	ServiceID   string
	Name        string
	Description string
	Price       decimal.Decimal
	CategoryID  string
}

type DeleteServiceCommand struct {
	Actor     auth.Identity
	ServiceID string
}

// ---------- Bookings ----------

type CreateBookingCommand struct {
	AccountID  string
	ServiceID  string
	Date       string
	Time       string
	Recurrence string
}

// BookingTransitionCommand drives confirm, checkout, cancel and complete.
type BookingTransitionCommand struct {
	Actor     auth.Identity
	BookingID string
}

// ---------- Transactions ----------

type RecordTransactionCommand struct {
	AccountID    string
	ServiceID    string
	BookingID    string
	Amount       int64
	Currency     string
	PaymentToken string
}

// CheckoutCommand pays for a booking. A nil Amount is filled from the service price.
type CheckoutCommand struct {
	Actor        auth.Identity
	BookingID    string
	Amount       *int64
	Currency     string
	PaymentToken string
}

// ---------- Reviews ----------

type SubmitReviewCommand struct {
	AccountID string
	ServiceID string
	Content   string
	Rating    *int
}

type ModerateReviewCommand struct {
	ReviewID    string
	ModeratorID string
}

type DeleteReviewCommand struct {
	ReviewID string
}

// ---------- Disputes and support ----------

type OpenDisputeCommand struct {
	AccountID   string
	ServiceID   string
	Description string
}

type ResolveDisputeCommand struct {
	DisputeID string
}

type CreateSupportTicketCommand struct {
	AccountID string
	Message   string
}
