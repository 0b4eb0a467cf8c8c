package cqrs

import (
	"github.com/servicehub/marketplace/shared/auth"
	"github.com/servicehub/marketplace/shared/models"
)

// ---------- Account queries ----------

type GetAccountQuery struct {
	AccountID string
}

// ListAccountsQuery matches Search against username and email.
type ListAccountsQuery struct {
	Search string
}

// ---------- Catalog queries ----------

type GetServiceQuery struct {
	ServiceID string
}

// ListServicesQuery filters by a case-insensitive name substring and/or category.
type ListServicesQuery struct {
	Search     string
	CategoryID string
}

type GetCompanyQuery struct {
	CompanyID string
}

// ---------- Booking queries ----------

// GetBookingQuery is subject to an ownership check.
type GetBookingQuery struct {
	Actor     auth.Identity
	BookingID string
}

type ListOrdersQuery struct {
	AccountID string
}

// ---------- Transaction queries ----------

type GetTransactionQuery struct {
	Actor         auth.Identity
	TransactionID string
}

type ListTransactionsQuery struct {
	AccountID string
}

// ---------- Review queries ----------

type GetReviewQuery struct {
	ReviewID string
}

// ListReviewsQuery returns every review when Status is empty.
type ListReviewsQuery struct {
	Status models.ReviewStatus
}

type ListServiceReviewsQuery struct {
	ServiceID string
}

// ---------- Dispute, notification and support queries ----------

type ListDisputesQuery struct {
	Status models.DisputeStatus
}

type ListNotificationsQuery struct {
	AccountID string
}
