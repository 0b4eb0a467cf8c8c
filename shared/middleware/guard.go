package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/servicehub/marketplace/shared/apperrors"
	"github.com/servicehub/marketplace/shared/auth"
	"github.com/servicehub/marketplace/shared/models"
)

const (
	AdminTokenCookie = "admin_token"
	identityKey      = "identity"
)

// TokenValidator is the part of auth.TokenService the guard needs.
type TokenValidator interface {
	Validate(token string) (*auth.Identity, error)
}

// Guard is one check in a request's access pipeline. A non-nil error stops
// the pipeline before the handler runs.
type Guard interface {
	Check(c *gin.Context) error
}

// Authenticated extracts and validates a token, then records the identity.
type Authenticated struct {
	Tokens TokenValidator
}

func (g Authenticated) Check(c *gin.Context) error {
	token := ExtractToken(c)
	if token == "" {
		return apperrors.ErrUnauthorized
	}
	id, err := g.Tokens.Validate(token)
	if err != nil {
		return err
	}
	SetIdentity(c, id)
	return nil
}

// RoleIn authorizes an already authenticated identity. An empty list allows any role.
type RoleIn []models.Role

func (r RoleIn) Check(c *gin.Context) error {
	id, ok := IdentityFrom(c)
	if !ok {
		return apperrors.ErrUnauthorized
	}
	if len(r) == 0 {
		return nil
	}
	for _, role := range r {
		if id.Role == role {
			return nil
		}
	}
	return apperrors.ErrForbidden
}

// Chain runs guards in order and aborts on the first failure.
func Chain(guards ...Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, g := range guards {
			if err := g.Check(c); err != nil {
				RespondWithAppError(c, err)
				c.Abort()
				return
			}
		}
		c.Next()
	}
}

// AccessGuard builds the extract -> validate -> authorize pipeline for a route group.
type AccessGuard struct {
	tokens TokenValidator
}

func NewAccessGuard(tokens TokenValidator) *AccessGuard {
	return &AccessGuard{tokens: tokens}
}

func (a *AccessGuard) Require(roles ...models.Role) gin.HandlerFunc {
	return Chain(Authenticated{Tokens: a.tokens}, RoleIn(roles))
}

// ExtractToken reads the admin cookie first and falls back to the
// Authorization header, accepting either "Bearer <token>" or a raw token.
func ExtractToken(c *gin.Context) string {
	if cookie, err := c.Cookie(AdminTokenCookie); err == nil && cookie != "" {
		return cookie
	}
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return header
}

// SetIdentity stores id on both the gin context and the request context.
func SetIdentity(c *gin.Context, id *auth.Identity) {
	c.Set(identityKey, id)
	c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), id))
}

func IdentityFrom(c *gin.Context) (*auth.Identity, bool) {
	v, exists := c.Get(identityKey)
	if !exists {
		return nil, false
	}
	id, ok := v.(*auth.Identity)
	return id, ok && id != nil
}

// MustIdentity is for handlers mounted behind a guard.
func MustIdentity(c *gin.Context) auth.Identity {
	id, ok := IdentityFrom(c)
	if !ok {
		panic("middleware: handler reached without an authenticated identity")
	}
	return *id
}
