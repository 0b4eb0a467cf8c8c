package handler

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/servicehub/marketplace/shared/apperrors"
	"github.com/servicehub/marketplace/shared/auth"
	"github.com/servicehub/marketplace/shared/cqrs"
	"github.com/servicehub/marketplace/shared/models"
)

// ---- mock implementations ----

type mockBookingCommander struct {
	createFn   func(cqrs.CreateBookingCommand) (*models.Booking, error)
	confirmFn  func(cqrs.BookingTransitionCommand) (*models.Booking, error)
	cancelFn   func(cqrs.BookingTransitionCommand) (*models.Booking, error)
	completeFn func(cqrs.BookingTransitionCommand) (*models.Booking, error)
}

func (m *mockBookingCommander) CreateBooking(_ context.Context, cmd cqrs.CreateBookingCommand) (*models.Booking, error) {
	if m.createFn != nil {
		return m.createFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockBookingCommander) ConfirmBooking(_ context.Context, cmd cqrs.BookingTransitionCommand) (*models.Booking, error) {
	if m.confirmFn != nil {
		return m.confirmFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockBookingCommander) CancelBooking(_ context.Context, cmd cqrs.BookingTransitionCommand) (*models.Booking, error) {
	if m.cancelFn != nil {
		return m.cancelFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockBookingCommander) CompleteBooking(_ context.Context, cmd cqrs.BookingTransitionCommand) (*models.Booking, error) {
	if m.completeFn != nil {
		return m.completeFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}

type mockBookingQuerier struct {
	getFn  func(cqrs.GetBookingQuery) (*models.Booking, error)
	listFn func(cqrs.ListOrdersQuery) ([]models.Booking, error)
}

func (m *mockBookingQuerier) GetBooking(_ context.Context, q cqrs.GetBookingQuery) (*models.Booking, error) {
	if m.getFn != nil {
		return m.getFn(q)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockBookingQuerier) ListOrders(_ context.Context, q cqrs.ListOrdersQuery) ([]models.Booking, error) {
	if m.listFn != nil {
		return m.listFn(q)
	}
	return nil, fmt.Errorf("not configured")
}

// ---- helpers ----

func newBookingTestRouter(cmds BookingCommander, qrys BookingQuerier, identity auth.Identity) *gin.Engine {
	r := newTestRouter(&identity)
	h := NewBookingHandler(cmds, qrys)
	r.POST("/book/:service_id", h.CreateBooking)
	r.GET("/orders", h.ListOrders)
	r.GET("/bookings/:id", h.GetBooking)
	r.POST("/bookings/:id/confirm", h.ConfirmBooking)
	r.POST("/bookings/:id/cancel", h.CancelBooking)
	r.POST("/bookings/:id/complete", h.CompleteBooking)
	return r
}

var pendingBooking = &models.Booking{ID: "bkg-1", AccountID: "acc-alice", ServiceID: "svc-1", Date: "2025-03-01", Time: "09:00", Status: models.BookingStatusPending}

// ---- tests ----

func TestCreateBooking(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		createFn       func(cqrs.CreateBookingCommand) (*models.Booking, error)
		expectedStatus int
	}{
		{
			name: "success",
			body: map[string]any{"date": "2025-03-01", "time": "09:00"},
			createFn: func(cmd cqrs.CreateBookingCommand) (*models.Booking, error) {
				if cmd.ServiceID != "svc-1" || cmd.AccountID != customerID.AccountID {
					return nil, fmt.Errorf("unexpected command %+v", cmd)
				}
				return pendingBooking, nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "bad request - date format",
			body:           map[string]any{"date": "01/03/2025", "time": "09:00"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - unknown recurrence",
			body:           map[string]any{"date": "2025-03-01", "time": "09:00", "recurrence": "hourly"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "not found - unknown service",
			body:           map[string]any{"date": "2025-03-01", "time": "09:00"},
			createFn:       func(cqrs.CreateBookingCommand) (*models.Booking, error) { return nil, apperrors.ErrServiceNotFound },
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newBookingTestRouter(&mockBookingCommander{createFn: tt.createFn}, &mockBookingQuerier{}, customerID)
			w := doRequest(router, http.MethodPost, "/book/svc-1", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestBookingTransitions(t *testing.T) {
	confirmed := *pendingBooking
	confirmed.Status = models.BookingStatusConfirmed

	tests := []struct {
		name           string
		path           string
		identity       auth.Identity
		commander      *mockBookingCommander
		expectedStatus int
	}{
		{
			name:     "confirm by provider",
			path:     "/bookings/bkg-1/confirm",
			identity: providerID,
			commander: &mockBookingCommander{confirmFn: func(cmd cqrs.BookingTransitionCommand) (*models.Booking, error) {
				if cmd.Actor.AccountID != providerID.AccountID {
					return nil, fmt.Errorf("wrong actor")
				}
				return &confirmed, nil
			}},
			expectedStatus: http.StatusOK,
		},
		{
			name:     "cancel after payment",
			path:     "/bookings/bkg-1/cancel",
			identity: customerID,
			commander: &mockBookingCommander{cancelFn: func(cqrs.BookingTransitionCommand) (*models.Booking, error) {
				return nil, apperrors.ErrInvalidTransition
			}},
			expectedStatus: http.StatusConflict,
		},
		{
			name:     "complete by another provider",
			path:     "/bookings/bkg-1/complete",
			identity: providerID,
			commander: &mockBookingCommander{completeFn: func(cqrs.BookingTransitionCommand) (*models.Booking, error) {
				return nil, apperrors.ErrForbidden
			}},
			expectedStatus: http.StatusForbidden,
		},
		{
			name:     "lost race",
			path:     "/bookings/bkg-1/confirm",
			identity: adminID,
			commander: &mockBookingCommander{confirmFn: func(cqrs.BookingTransitionCommand) (*models.Booking, error) {
				return nil, apperrors.ErrConcurrentUpdate
			}},
			expectedStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newBookingTestRouter(tt.commander, &mockBookingQuerier{}, tt.identity)
			w := doRequest(router, http.MethodPost, tt.path, nil)
			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestGetBookingAndOrders(t *testing.T) {
	router := newBookingTestRouter(&mockBookingCommander{}, &mockBookingQuerier{
		getFn: func(q cqrs.GetBookingQuery) (*models.Booking, error) {
			if q.BookingID != "bkg-1" {
				return nil, apperrors.ErrBookingNotFound
			}
			return pendingBooking, nil
		},
		listFn: func(cqrs.ListOrdersQuery) ([]models.Booking, error) {
			return []models.Booking{*pendingBooking}, nil
		},
	}, customerID)

	if w := doRequest(router, http.MethodGet, "/bookings/bkg-1", nil); w.Code != http.StatusOK {
		t.Errorf("get: expected 200, got %d", w.Code)
	}
	if w := doRequest(router, http.MethodGet, "/bookings/bkg-x", nil); w.Code != http.StatusNotFound {
		t.Errorf("get missing: expected 404, got %d", w.Code)
	}
	w := doRequest(router, http.MethodGet, "/orders", nil)
	var body ListOrdersResponse
	if err := decodeBody(w, &body); err != nil || len(body.Orders) != 1 {
		t.Errorf("orders: unexpected body %s", w.Body.String())
	}
}
