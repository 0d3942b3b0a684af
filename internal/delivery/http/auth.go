package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/vogiaan1904/spacehost/pkg/logger"
	"github.com/vogiaan1904/spacehost/pkg/response"
)

var errUnexpectedSignature = errors.New("unexpected signing method")

// BearerAuth rejects requests without a valid HS256 token signed with secret.
func BearerAuth(secret string, l logger.Logger) func(http.Handler) http.Handler {
	key := []byte(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if !strings.HasPrefix(authz, "Bearer ") {
				response.Error(w, errUnauthorized)
				return
			}

			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(strings.TrimPrefix(authz, "Bearer "), claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errUnexpectedSignature
				}
				return key, nil
			})
			if err != nil || !token.Valid {
				l.Warnf(r.Context(), "delivery.http.auth.BearerAuth: invalid token: %v", err)
				response.Error(w, errUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
