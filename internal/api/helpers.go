package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"cafe-schedule/internal/models"

	"github.com/sirupsen/logrus"
)

type ErrorResponse struct {
	Message     string `json:"message"`
	Description string `json:"description,omitempty"`
}

func sendJSON(w http.ResponseWriter, logger logrus.FieldLogger, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.WithError(err).Error("Failed to encode response")
	}
}

func sendJSONErr(w http.ResponseWriter, logger logrus.FieldLogger, code int, originErr error, msgToSend string) {
	entry := logger.WithField("status", code)
	if originErr != nil {
		entry = entry.WithError(originErr)
	}

	if code >= http.StatusInternalServerError {
		entry.Error("api error")
	} else {
		entry.Warn("api error")
	}

	resp := ErrorResponse{Message: msgToSend}
	if originErr != nil && code < http.StatusInternalServerError {
		resp.Description = originErr.Error()
	}
	sendJSON(w, logger, code, resp)
}

// sendServiceErr выбирает код ответа по ошибке сервиса
func sendServiceErr(w http.ResponseWriter, logger logrus.FieldLogger, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		sendJSONErr(w, logger, http.StatusBadRequest, err, "Некорректные данные")
	case errors.Is(err, models.ErrNotFound):
		sendJSONErr(w, logger, http.StatusNotFound, err, "Не найдено")
	case errors.Is(err, models.ErrInvalidTransition):
		sendJSONErr(w, logger, http.StatusConflict, err, "Недопустимый переход статуса")
	case errors.Is(err, models.ErrAlreadyExists):
		sendJSONErr(w, logger, http.StatusConflict, err, "Запись уже существует")
	case errors.Is(err, models.ErrForbidden):
		sendJSONErr(w, logger, http.StatusForbidden, err, "Доступ запрещен")
	case errors.Is(err, models.ErrUnauthorized):
		sendJSONErr(w, logger, http.StatusUnauthorized, err, "Требуется авторизация")
	default:
		sendJSONErr(w, logger, http.StatusInternalServerError, err, "Внутренняя ошибка")
	}
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: некорректный ID %q", models.ErrValidation, raw)
	}
	return uint(id), nil
}
