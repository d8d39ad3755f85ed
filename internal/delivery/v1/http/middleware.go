package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/DRSN-tech/sales-backend/internal/domain"
	"github.com/DRSN-tech/sales-backend/pkg/e"
	"github.com/DRSN-tech/sales-backend/pkg/logger"
	"github.com/go-chi/chi/v5/middleware"
)

// Заголовки, которыми шлюз аутентификации передаёт проверенную личность.
const (
	HeaderIdentityID    = "X-Identity-Id"
	HeaderIdentityRole  = "X-Identity-Role"
	HeaderIdentityName  = "X-Identity-Name"
	HeaderIdentityEmail = "X-Identity-Email"
)

type actorCtxKey struct{}

// ActorFromContext достаёт пользователя, положенный identityMiddleware.
func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorCtxKey{}).(domain.Actor)
	return actor, ok
}

func withActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorCtxKey{}, actor)
}

// parseActor собирает пользователя из заголовков. Id и роль обязательны.
func parseActor(h http.Header) (domain.Actor, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(h.Get(HeaderIdentityID)), 10, 64)
	if err != nil || id <= 0 {
		return domain.Actor{}, e.ErrInvalidIdentityHeader
	}

	role, ok := domain.ParseRole(h.Get(HeaderIdentityRole))
	if !ok {
		return domain.Actor{}, e.ErrInvalidIdentityHeader
	}

	return domain.NewActor(id, role, strings.TrimSpace(h.Get(HeaderIdentityName)), strings.TrimSpace(h.Get(HeaderIdentityEmail))), nil
}

// identityMiddleware отклоняет запросы без личности с 401.
func identityMiddleware(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, err := parseActor(r.Header)
			if err != nil {
				WriteError(w, r, log, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(withActor(r.Context(), actor)))
		})
	}
}

// requestLogger пишет метод, путь, статус и длительность каждого запроса.
func requestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			log.Infof("http request: method=%s path=%s status=%d bytes=%d duration=%s request_id=%s",
				r.Method, r.URL.Path, ww.Status(), ww.BytesWritten(), time.Since(start), middleware.GetReqID(r.Context()))
		})
	}
}

// mustActor возвращает пользователя из контекста. Маршруты с хендлерами всегда идут через identityMiddleware.
func mustActor(r *http.Request) domain.Actor {
	actor, _ := ActorFromContext(r.Context())
	return actor
}
