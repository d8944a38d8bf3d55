package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	id "tenantgate/pkg/domain"
	"tenantgate/pkg/platform/httputil"
	"tenantgate/pkg/requestcontext"
)

// BearerVerifier validates an access token presented in the Authorization header.
type BearerVerifier interface {
	VerifyBearer(ctx context.Context, token string) (*Claims, error)
}

// Claims is the subset of access-token claims the middleware needs.
type Claims struct {
	UserID string
	JTI    string
}

const invalidTokenMessage = "Invalid or expired token"

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, bool) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequireAuth rejects requests without a valid access token and stores the
// authenticated user in the request context.
func RequireAuth(verifier BearerVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token, ok := BearerToken(r)
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{Error: "Authentication credentials were not provided"})
				return
			}

			claims, err := verifier.VerifyBearer(ctx, token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{Error: invalidTokenMessage})
				return
			}

			userID, err := parseSubject(claims)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - malformed token claims",
					"error", err,
					"request_id", requestID,
				)
				httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{Error: invalidTokenMessage})
				return
			}

			ctx = requestcontext.WithUserID(ctx, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func parseSubject(claims *Claims) (id.UserID, error) {
	if claims == nil {
		return id.UserID{}, fmt.Errorf("no claims")
	}
	userID, err := id.ParseUserID(claims.UserID)
	if err != nil {
		return id.UserID{}, fmt.Errorf("invalid subject: %w", err)
	}
	if userID.IsNil() {
		return id.UserID{}, fmt.Errorf("nil subject")
	}
	return userID, nil
}
