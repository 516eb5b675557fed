package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Dosada05/tournament-calendar/middleware"
	"github.com/Dosada05/tournament-calendar/models"
	"github.com/Dosada05/tournament-calendar/repositories"
	"github.com/Dosada05/tournament-calendar/services"
	"github.com/Dosada05/tournament-calendar/storage"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type jsonResponse map[string]interface{}

const maxBodyBytes = 1_048_576 // 1MB

var errTokenRequired = errors.New("token is required")

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case errors.As(err, &maxBytesError):
			return fmt.Errorf("body must not be larger than %d bytes", maxBodyBytes)
		case errors.Is(err, models.ErrInvalidDate):
			return err
		case errors.As(err, &invalidUnmarshalError):
			panic(err) // ошибка программиста: передан не указатель
		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

// respond writes data or falls back to a 500 if encoding fails.
func respond(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	if err := writeJSON(w, status, data, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func errorResponse(w http.ResponseWriter, r *http.Request, status int, message interface{}) {
	env := jsonResponse{"error": message}
	if err := writeJSON(w, status, env, nil); err != nil {
		middleware.LoggerFromContext(r.Context()).Error("failed to write error response", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	middleware.LoggerFromContext(r.Context()).Error("internal server error", zap.Error(err))
	message := "the server encountered a problem and could not process your request"
	errorResponse(w, r, http.StatusInternalServerError, message)
}

func badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func notFoundResponse(w http.ResponseWriter, r *http.Request) {
	message := "the requested resource could not be found"
	errorResponse(w, r, http.StatusNotFound, message)
}

func conflictResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusConflict, message)
}

func unauthorizedResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusUnauthorized, message)
}

func forbiddenResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusForbidden, message)
}

func badGatewayResponse(w http.ResponseWriter, r *http.Request, err error) {
	middleware.LoggerFromContext(r.Context()).Warn("tournament api call failed", zap.Error(err))
	errorResponse(w, r, http.StatusBadGateway, err.Error())
}

// mapServiceErrorToHTTP преобразует ошибки сервисного слоя в HTTP-ответы
func mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	var statusErr *repositories.StatusError

	switch {
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrTournamentNotFound):
		notFoundResponse(w, r)

	// Ошибки валидации формы
	case errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrStartTimeRequired),
		errors.Is(err, services.ErrInvalidPlatform),
		errors.Is(err, services.ErrLinkIndexOutOfRange),
		errors.Is(err, services.ErrEmptyAttachment),
		errors.Is(err, services.ErrCommentEmpty),
		errors.Is(err, services.ErrDeleteNotConfirmed),
		errors.Is(err, models.ErrInvalidDate):
		badRequestResponse(w, r, err)

	// Конфликты состояния
	case errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrSubmitInFlight),
		errors.Is(err, services.ErrToggleInFlight):
		conflictResponse(w, r, err.Error())

	// Ошибки доступа
	case errors.Is(err, services.ErrAuthRequired),
		errors.Is(err, repositories.ErrAuthRequired):
		unauthorizedResponse(w, r, err.Error())
	case errors.Is(err, services.ErrNotOwner):
		forbiddenResponse(w, r, err.Error())

	// Ошибки удалённого API
	case errors.As(err, &statusErr):
		switch statusErr.StatusCode {
		case http.StatusUnauthorized:
			unauthorizedResponse(w, r, err.Error())
		case http.StatusForbidden:
			forbiddenResponse(w, r, err.Error())
		case http.StatusNotFound:
			notFoundResponse(w, r)
		default:
			badGatewayResponse(w, r, err)
		}
	case errors.Is(err, repositories.ErrTransport),
		errors.Is(err, repositories.ErrMalformedResponse),
		errors.Is(err, storage.ErrUploadFailed):
		badGatewayResponse(w, r, err)

	default:
		serverErrorResponse(w, r, err)
	}
}

func dateFromURL(r *http.Request, paramName string) (models.Date, error) {
	raw := chi.URLParam(r, paramName)
	if raw == "" {
		return models.Date{}, fmt.Errorf("missing %s in URL path", paramName)
	}
	return models.ParseDate(raw)
}

func idFromURL(r *http.Request, paramName string) (string, error) {
	id := strings.TrimSpace(chi.URLParam(r, paramName))
	if id == "" {
		return "", fmt.Errorf("missing %s in URL path", paramName)
	}
	return id, nil
}
