package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/atlasclinic/clinic-admin/internal/appointment"
)

type identityKey struct{}

// Identity is the authenticated caller: a staff member whose subject
// claim is their provider id. The token is issued elsewhere; this
// service only verifies and consumes it.
type Identity struct {
	ProviderID uuid.UUID
	Role       string
}

type authClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

var staffRoles = map[string]bool{
	appointment.RoleAdmin:        true,
	appointment.RoleProvider:     true,
	appointment.RoleReceptionist: true,
}

// AuthMiddleware verifies the bearer token and stores the caller
// identity in the request context. Only staff roles get through.
func AuthMiddleware(secret string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}

		claims := &authClaims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil || !parsed.Valid {
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
			return
		}

		providerID, err := uuid.Parse(claims.Subject)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized", "token subject is not a valid id")
			return
		}

		if !staffRoles[claims.Role] {
			writeError(w, http.StatusForbidden, "access_denied", "role is not allowed to manage the clinic")
			return
		}

		ctx := context.WithValue(r.Context(), identityKey{}, Identity{
			ProviderID: providerID,
			Role:       claims.Role,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// IdentityFromContext returns the authenticated caller, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
