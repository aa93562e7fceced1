package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/mindmap/pkg/editor"
	apperrors "github.com/matzehuels/mindmap/pkg/errors"
	"github.com/matzehuels/mindmap/pkg/layout"
	"github.com/matzehuels/mindmap/pkg/mindmap"
	"github.com/matzehuels/mindmap/pkg/store"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names in messages.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type errorBody struct {
	Code  apperrors.Code `json:"code"`
	Error string         `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respondError writes err as a JSON error body. Errors without a code are
// logged and reported as a generic internal error.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	err = classify(err)
	status := apperrors.HTTPStatus(err)
	msg := apperrors.UserMessage(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		if apperrors.GetCode(err) == apperrors.ErrCodeInternal {
			msg = "internal server error"
		}
	}
	respondJSON(w, status, errorBody{Code: apperrors.GetCode(err), Error: msg})
}

// classify attaches an error code to the sentinel errors of the domain
// packages.
func classify(err error) error {
	var coded *apperrors.Error
	switch {
	case errors.As(err, &coded):
		return err
	case errors.Is(err, store.ErrNotFound):
		return apperrors.Wrap(apperrors.ErrCodeMapNotFound, err, "Mind map not found")
	case errors.Is(err, editor.ErrNodeNotFound):
		return apperrors.Wrap(apperrors.ErrCodeNodeNotFound, err, "Node not found")
	case errors.Is(err, editor.ErrRootRemoval):
		return apperrors.Wrap(apperrors.ErrCodeConflict, err, "The root topic cannot be deleted")
	case errors.Is(err, layout.ErrCycle), errors.Is(err, layout.ErrMultipleParents):
		return apperrors.Wrap(apperrors.ErrCodeConflict, err, "Map is not a tree: %v", err)
	case errors.Is(err, store.ErrExists):
		return apperrors.Wrap(apperrors.ErrCodeConflict, err, "Mind map already exists")
	case errors.Is(err, store.ErrUnavailable):
		return apperrors.Wrap(apperrors.ErrCodeUnavailable, err, "Storage temporarily unavailable")
	case errors.Is(err, mindmap.ErrEmptyID), errors.Is(err, mindmap.ErrDuplicateID),
		errors.Is(err, mindmap.ErrDanglingEdge), errors.Is(err, mindmap.ErrInvalidPosition):
		return apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "%v", err)
	default:
		return apperrors.Wrap(apperrors.ErrCodeInternal, err, "internal error")
	}
}

// decode reads a JSON body into v and validates it.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "Invalid request body: %v", err)
	}
	if err := validate.Struct(v); err != nil {
		return formatValidationError(err)
	}
	return nil
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "%v", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, formatFieldError(e))
	}
	return apperrors.New(apperrors.ErrCodeInvalidInput, "%s", strings.Join(msgs, "; "))
}

func formatFieldError(e validator.FieldError) string {
	field := e.Field()
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, e.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
