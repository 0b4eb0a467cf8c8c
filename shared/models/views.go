package models

import "time"

// ServiceView is the read-optimised projection of a catalog service.
// Price is rendered with two decimal places so clients never see float drift.
type ServiceView struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Price        string    `json:"price"`
	CategoryID   string    `json:"categoryId"`
	CategoryName string    `json:"category"`
	CompanyID    string    `json:"companyId"`
	CreatedAt    time.Time `json:"createdTimestamp"`
	UpdatedAt    time.Time `json:"updatedTimestamp"`
}

// AccountView is what admin user management returns; it never carries the hash.
type AccountView struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdTimestamp"`
}

// DashboardView carries the admin aggregate counts. Revenue is in minor units.
type DashboardView struct {
	TotalUsers     int64 `json:"totalUsers"`
	ActiveUsers    int64 `json:"activeUsers"`
	TotalServices  int64 `json:"totalServices"`
	TotalBookings  int64 `json:"totalBookings"`
	PendingReviews int64 `json:"pendingReviews"`
	TotalRevenue   int64 `json:"totalRevenue"`
}

// CheckoutResult is the booking after checkout plus the ledger row written
// for it, if any.
type CheckoutResult struct {
	Booking     *Booking     `json:"booking"`
	Transaction *Transaction `json:"transaction,omitempty"`
}

func AccountToView(a *Account) AccountView {
	v := AccountView{
		ID:        a.ID,
		Username:  a.Username,
		Role:      a.Role,
		CreatedAt: a.CreatedAt,
	}
	if a.Email != nil {
		v.Email = *a.Email
	}
	return v
}

// Session is what a successful login or refresh returns.
type Session struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	Account   AccountView `json:"account"`
}

// Receipt is a rendered PDF for one ledger row.
type Receipt struct {
	Filename string
	Content  []byte
}
