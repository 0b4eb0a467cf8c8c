package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/servicehub/marketplace/shared/apperrors"
	"github.com/servicehub/marketplace/shared/auth"
	"github.com/servicehub/marketplace/shared/models"
	"go.uber.org/zap"
)

// ---- mock implementations ----

type mockValidator struct {
	tokens map[string]*auth.Identity
	errs   map[string]error
}

func (m *mockValidator) Validate(token string) (*auth.Identity, error) {
	if err, ok := m.errs[token]; ok {
		return nil, err
	}
	if id, ok := m.tokens[token]; ok {
		return id, nil
	}
	return nil, apperrors.ErrInvalidToken
}

func newGuardTestRouter(roles ...models.Role) (*gin.Engine, *bool) {
	gin.SetMode(gin.TestMode)
	reached := false
	v := &mockValidator{
		tokens: map[string]*auth.Identity{
			"customer-token": {AccountID: "acc-customer", Role: models.RoleCustomer},
			"admin-token":    {AccountID: "acc-admin", Role: models.RoleAdmin},
		},
		errs: map[string]error{
			"expired-token": apperrors.ErrExpiredToken,
		},
	}
	r := gin.New()
	r.GET("/protected", NewAccessGuard(v).Require(roles...), func(c *gin.Context) {
		reached = true
		id := MustIdentity(c)
		fromCtx, ok := auth.IdentityFromContext(c.Request.Context())
		if !ok || fromCtx.AccountID != id.AccountID {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"accountId": id.AccountID})
	})
	return r, &reached
}

func TestAccessGuard(t *testing.T) {
	tests := []struct {
		name            string
		roles           []models.Role
		header          string
		cookie          string
		expectedStatus  int
		expectedMessage string
		expectReached   bool
	}{
		{
			name:            "no token",
			roles:           models.AdminRoles,
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Authentication required",
		},
		{
			name:            "expired token",
			roles:           models.AdminRoles,
			header:          "Bearer expired-token",
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Token expired",
		},
		{
			name:            "invalid token",
			roles:           models.AdminRoles,
			header:          "Bearer garbage",
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Invalid token",
		},
		{
			name:            "wrong role",
			roles:           models.AdminRoles,
			header:          "Bearer customer-token",
			expectedStatus:  http.StatusForbidden,
			expectedMessage: "Forbidden",
		},
		{
			name:           "admin via bearer header",
			roles:          models.AdminRoles,
			header:         "Bearer admin-token",
			expectedStatus: http.StatusOK,
			expectReached:  true,
		},
		{
			name:           "raw token header",
			roles:          models.AdminRoles,
			header:         "admin-token",
			expectedStatus: http.StatusOK,
			expectReached:  true,
		},
		{
			name:           "admin via cookie",
			roles:          models.AdminRoles,
			cookie:         "admin-token",
			expectedStatus: http.StatusOK,
			expectReached:  true,
		},
		{
			name:           "cookie takes precedence over header",
			roles:          models.AdminRoles,
			header:         "Bearer customer-token",
			cookie:         "admin-token",
			expectedStatus: http.StatusOK,
			expectReached:  true,
		},
		{
			name:           "any role allowed",
			header:         "Bearer customer-token",
			expectedStatus: http.StatusOK,
			expectReached:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, reached := newGuardTestRouter(tt.roles...)
			req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: AdminTokenCookie, Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if *reached != tt.expectReached {
				t.Errorf("handler reached = %v, want %v", *reached, tt.expectReached)
			}
			if tt.expectedMessage != "" {
				var body map[string]string
				_ = json.Unmarshal(w.Body.Bytes(), &body)
				if body["message"] != tt.expectedMessage {
					t.Errorf("expected message %q, got %q", tt.expectedMessage, body["message"])
				}
			}
		})
	}
}

func TestRecoveryReturnsGenericError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(LoggingMiddleware(zap.NewNop()), Recovery(zap.NewNop()))
	r.GET("/boom", func(c *gin.Context) {
		panic("database exploded")
	})

	req, _ := http.NewRequest(http.MethodGet, "/boom", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if body := w.Body.String(); body != `{"message":"Internal server error"}` {
		t.Errorf("unexpected body %s", body)
	}
	if w.Header().Get(RequestIDHeader) == "" {
		t.Error("missing request id header")
	}
}

func TestRateLimiter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/login", NewRateLimiter(1, 2).Middleware(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req, _ := http.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("unexpected status sequence %v", codes)
	}

	req, _ := http.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("other client was limited: %d", w.Code)
	}
}

func TestRateLimiterDropsIdleClients(t *testing.T) {
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewRateLimiter(60, 5)
	l.now = func() time.Time { return clock }

	l.getLimiter("10.0.0.1")
	clock = clock.Add(5 * time.Minute)
	l.getLimiter("10.0.0.2")
	if len(l.visitors) != 2 {
		t.Fatalf("expected 2 tracked clients, got %d", len(l.visitors))
	}

	// first client idle for 11m, second for 6m
	clock = clock.Add(6 * time.Minute)
	l.getLimiter("10.0.0.3")
	if _, ok := l.visitors["10.0.0.1"]; ok {
		t.Error("idle client was not dropped")
	}
	if _, ok := l.visitors["10.0.0.2"]; !ok {
		t.Error("recent client was dropped")
	}
	if len(l.visitors) != 2 {
		t.Errorf("expected 2 tracked clients after sweep, got %d", len(l.visitors))
	}
}

func TestValidateRequest(t *testing.T) {
	type req struct {
		Content string `json:"content" validate:"required,notblank"`
		Rating  *int   `json:"rating,omitempty" validate:"omitempty,gte=1,lte=5"`
	}
	six := 6
	if errs := ValidateRequest(req{Content: "   "}); len(errs) != 1 || errs[0].Type != "notblank" {
		t.Errorf("blank content: got %+v", errs)
	}
	if errs := ValidateRequest(req{Content: "ok", Rating: &six}); len(errs) != 1 || errs[0].Field != "rating" {
		t.Errorf("rating 6: got %+v", errs)
	}
	if errs := ValidateRequest(req{Content: "Great service"}); errs != nil {
		t.Errorf("valid request: got %+v", errs)
	}
}
