package middleware

import (
	"context"
	"net/http"
	"strings"

	"masterbook/pkg/logger"
	"masterbook/pkg/model"
)

const (
	ActorKey contextKey = "actor"

	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

// Identity reads the identity forwarded by the upstream auth gateway. Requests
// without one pass through anonymously; handlers that need an actor reject them.
// A malformed identity is rejected here.
func Identity(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(HeaderUserID))
			role := model.Role(strings.ToLower(strings.TrimSpace(r.Header.Get(HeaderUserRole))))

			if id == "" && role == "" {
				next.ServeHTTP(w, r)
				return
			}

			if id == "" || !role.IsValid() {
				log.Warn("Rejected malformed identity headers",
					"request_id", RequestIDFromContext(r.Context()),
					"user_id", id,
					"role", role,
					"path", r.URL.Path,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"code":"UNAUTHORIZED","error":"Invalid identity headers"}`))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), model.Actor{ID: id, Role: role})))
		})
	}
}

func WithActor(ctx context.Context, actor model.Actor) context.Context {
	return context.WithValue(ctx, ActorKey, actor)
}

func ActorFromContext(ctx context.Context) (model.Actor, bool) {
	actor, ok := ctx.Value(ActorKey).(model.Actor)
	return actor, ok
}
