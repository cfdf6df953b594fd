package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dgallion1/copyedit/internal/caret"
	"github.com/dgallion1/copyedit/internal/editor"
	"github.com/dgallion1/copyedit/internal/importer"
	"github.com/dgallion1/copyedit/internal/session"
)

// maxBodyBytes bounds JSON request bodies; uploads have their own limit.
const maxBodyBytes = 4 << 20

var validate = newValidator()

// newValidator reports fields by their json names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// FieldError is one failed validation rule.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error  string       `json:"error"`
	Fields []FieldError `json:"fields,omitempty"`
}

func fieldErrors(err error) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Rule: fe.Tag()})
	}
	return out
}

// decode reads a JSON body into dst and validates it. On failure the error
// response has been written and false is returned.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		jsonError(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid parameters", Fields: fieldErrors(err)})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, ErrorResponse{Error: msg})
}

// writeError maps domain errors to status codes.
func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, session.ErrFull):
		code = http.StatusServiceUnavailable
	case errors.Is(err, editor.ErrClosed):
		code = http.StatusGone
	case errors.Is(err, editor.ErrWrongMode), errors.Is(err, editor.ErrFormattingDisabled):
		code = http.StatusConflict
	case errors.Is(err, editor.ErrUnknownCommand), errors.Is(err, editor.ErrUnknownMode),
		errors.Is(err, editor.ErrUnknownInput), errors.Is(err, editor.ErrEmptyQuery),
		errors.Is(err, importer.ErrUnsupported):
		code = http.StatusBadRequest
	}
	jsonError(w, err.Error(), code)
}

// Selection is the wire form of a caret position. Omitted block hints mean
// unknown.
type Selection struct {
	Start       *int `json:"start" validate:"required,min=0"`
	End         *int `json:"end" validate:"required,min=0"`
	StartBlock  *int `json:"start_block,omitempty" validate:"omitempty,min=-1"`
	EndBlock    *int `json:"end_block,omitempty" validate:"omitempty,min=-1"`
	StartBreaks int  `json:"start_breaks,omitempty" validate:"min=0"`
	EndBreaks   int  `json:"end_breaks,omitempty" validate:"min=0"`
}

// Position converts sel; a nil selection yields nil.
func (sel *Selection) Position() *caret.Position {
	if sel == nil {
		return nil
	}
	pos := caret.At(*sel.Start, *sel.End)
	if sel.StartBlock != nil {
		pos.StartBlock = *sel.StartBlock
	}
	if sel.EndBlock != nil {
		pos.EndBlock = *sel.EndBlock
	}
	pos.StartBreaks, pos.EndBreaks = sel.StartBreaks, sel.EndBreaks
	return pos
}

type createSessionRequest struct {
	Title  string `json:"title" validate:"max=200"`
	Markup string `json:"markup"`
}

type loadRequest struct {
	Markup string `json:"markup"`
}

type inputRequest struct {
	editor.InputEvent
	Selection *Selection `json:"selection,omitempty"`
}

type replaceContentRequest struct {
	Markup    string     `json:"markup"`
	Selection *Selection `json:"selection,omitempty"`
}

type selectionRequest struct {
	Selection *Selection `json:"selection" validate:"required"`
}

type pasteRequest struct {
	Plain     string     `json:"plain"`
	Markup    string     `json:"markup"`
	Selection *Selection `json:"selection,omitempty"`
}

type copyRequest struct {
	Selection *Selection `json:"selection,omitempty"`
}

type formatRequest struct {
	Command   string     `json:"command" validate:"required"`
	Selection *Selection `json:"selection,omitempty"`
}

type findReplaceRequest struct {
	Find    string `json:"find" validate:"required"`
	Replace string `json:"replace"`
	Mode    string `json:"mode" validate:"omitempty,oneof=rendered raw"`
}

type modeRequest struct {
	Mode string `json:"mode" validate:"required,oneof=rendered raw"`
}

type navigateRequest struct {
	Key       string `json:"key" validate:"required"`
	Direction string `json:"direction" validate:"omitempty,oneof=next previous"`
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}

func sizeError(limit int64) string {
	return fmt.Sprintf("file exceeds max size (%d bytes)", limit)
}
