package api

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"
	"time"

	"cafe-schedule/internal/models"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gofrs/uuid/v5"
	"github.com/sirupsen/logrus"
)

const userIDHeader = "X-User-ID"

var skipLogging = map[string]struct{}{
	"/api/health": {},
}

type ctxKey int

const (
	ctxKeyLogger ctxKey = iota
	ctxKeyUser
)

type Middleware struct {
	users       UserService
	permissions PermissionService
	logger      *logrus.Logger
}

func NewMiddleware(users UserService, permissions PermissionService, logger *logrus.Logger) *Middleware {
	return &Middleware{
		users:       users,
		permissions: permissions,
		logger:      logger,
	}
}

// loggerFrom возвращает логгер запроса с request_id и user_id
func loggerFrom(ctx context.Context) logrus.FieldLogger {
	if entry, ok := ctx.Value(ctxKeyLogger).(*logrus.Entry); ok {
		return entry
	}
	return logrus.StandardLogger()
}

func userFrom(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(ctxKeyUser).(*models.User)
	return user, ok && user != nil
}

func (m *Middleware) Log(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.Must(uuid.NewV4()).String()
		}
		w.Header().Set("X-Request-Id", requestID)

		entry := m.logger.WithField("request_id", requestID)
		ctx := context.WithValue(r.Context(), ctxKeyLogger, entry)

		if _, ok := skipLogging[r.URL.Path]; ok {
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r.WithContext(ctx))

		entry.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"duration": time.Since(start).String(),
		}).Info("request handled")
	})
}

func (m *Middleware) Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				loggerFrom(r.Context()).WithFields(logrus.Fields{
					"panic": rec,
					"stack": string(debug.Stack()),
				}).Error("recovered from panic")

				sendJSONErr(w, loggerFrom(r.Context()), http.StatusInternalServerError, nil, "Внутренняя ошибка")
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// Auth определяет пользователя по заголовку X-User-ID. Сессии и токены
// обслуживаются внешним сервисом.
func (m *Middleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		raw := r.Header.Get(userIDHeader)
		if raw == "" {
			sendJSONErr(w, loggerFrom(ctx), http.StatusUnauthorized, models.ErrUnauthorized, "Отсутствует заголовок X-User-ID")
			return
		}

		id, err := parseID(raw)
		if err != nil {
			sendJSONErr(w, loggerFrom(ctx), http.StatusUnauthorized, err, "Неверный X-User-ID")
			return
		}

		user, err := m.users.GetUser(ctx, id)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				sendJSONErr(w, loggerFrom(ctx), http.StatusUnauthorized, err, "Пользователь не найден")
			} else {
				sendJSONErr(w, loggerFrom(ctx), http.StatusInternalServerError, err, "Ошибка аутентификации")
			}
			return
		}

		ctx = context.WithValue(ctx, ctxKeyUser, user)
		if entry, ok := loggerFrom(ctx).(*logrus.Entry); ok {
			ctx = context.WithValue(ctx, ctxKeyLogger, entry.WithField("user_id", user.ID))
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// actionFor сопоставляет HTTP-метод действию над разделом
func actionFor(method string) (models.Action, bool) {
	switch method {
	case http.MethodGet, http.MethodHead:
		return models.ActionView, true
	case http.MethodPost:
		return models.ActionCreate, true
	case http.MethodPut, http.MethodPatch:
		return models.ActionEdit, true
	case http.MethodDelete:
		return models.ActionDelete, true
	}
	return "", false
}

// RequirePermission пропускает запрос, только если у пользователя есть
// право на действие, соответствующее методу, в разделе module
func (m *Middleware) RequirePermission(module models.Module) func(http.Handler) http.Handler {
	return m.require(module, func(r *http.Request) (models.Action, bool) {
		return actionFor(r.Method)
	})
}

// RequireAction проверяет заданное действие независимо от метода. Нужен
// для маршрутов, где метод не совпадает со смыслом операции.
func (m *Middleware) RequireAction(module models.Module, action models.Action) func(http.Handler) http.Handler {
	return m.require(module, func(*http.Request) (models.Action, bool) {
		return action, true
	})
}

func (m *Middleware) require(module models.Module, resolve func(r *http.Request) (models.Action, bool)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			user, ok := userFrom(ctx)
			if !ok {
				sendJSONErr(w, loggerFrom(ctx), http.StatusUnauthorized, models.ErrUnauthorized, "Требуется авторизация")
				return
			}

			action, ok := resolve(r)
			if !ok || !m.permissions.Can(user.ID, module, action) {
				loggerFrom(ctx).WithFields(logrus.Fields{
					"module": module,
					"action": action,
				}).Warn("Permission denied")
				sendJSONErr(w, loggerFrom(ctx), http.StatusForbidden, models.ErrForbidden, "Недостаточно прав")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
