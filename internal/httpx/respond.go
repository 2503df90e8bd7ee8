package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/ariefcatur/go-storefront/internal/apperr"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

var validate = newValidator()

// newValidator reports fields by their json names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps an error kind to its status. Store failures are logged
// and answered with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, log zerolog.Logger, err error) {
	writeErrorStatus(w, r, log, statusOf(err), err)
}

func writeErrorStatus(w http.ResponseWriter, r *http.Request, log zerolog.Logger, code int, err error) {
	msg := err.Error()
	if code >= http.StatusInternalServerError {
		log.Error().Err(err).Str("method", r.Method).Str("url", r.URL.String()).Msg("request failed")
		msg = "Internal Server Error"
	}
	writeJSON(w, code, errorBody{Error: msg})
}

// decode reads a JSON body into v and validates its struct tags.
func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Validation("invalid json")
	}
	if err := validate.Struct(v); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			return apperr.Validation("%s is %s", ve[0].Field(), ve[0].Tag())
		}
		return apperr.Validation("%v", err)
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid %s", name)
	}
	return id, nil
}

// queryInt returns def when the parameter is absent or not a number.
func queryInt(r *http.Request, name string, def int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

type message struct {
	Message string `json:"message"`
}

func messagef(format string, args ...any) message {
	return message{Message: fmt.Sprintf(format, args...)}
}
