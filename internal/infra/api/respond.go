package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// badRequest carries a status decided at the boundary, before any use case ran.
type badRequest struct {
	status int
	body   errorBody
}

func (e *badRequest) Error() string { return e.body.Message }

func writeBadRequest(w http.ResponseWriter, e *badRequest) {
	writeJSON(w, e.status, e.body)
}

// decodeValid reads a JSON body into dst and validates it.
// A missing or malformed body is 400; a body failing validation is 422.
func decodeValid(r *http.Request, dst any) *badRequest {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		msg := "malformed JSON body"
		if errors.Is(err, io.EOF) {
			msg = "request body is required"
		}
		return &badRequest{status: http.StatusBadRequest, body: errorBody{Code: "bad_request", Message: msg}}
	}
	if err := validate.Struct(dst); err != nil {
		return validationFailed(err)
	}
	return nil
}

func validationFailed(err error) *badRequest {
	body := errorBody{Code: "validation_failed", Message: "request validation failed"}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		body.Fields = make(map[string]string, len(verrs))
		for _, fe := range verrs {
			body.Fields[fe.Field()] = ruleText(fe)
		}
	}
	return &badRequest{status: http.StatusUnprocessableEntity, body: body}
}

func ruleText(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max", "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "email":
		return "must be a valid email"
	case "e164":
		return "must be an E.164 phone number"
	default:
		return "is invalid (" + fe.Tag() + ")"
	}
}

// pageParams reads limit/offset, clamping limit to [1,100] with a default of 20.
func pageParams(r *http.Request) (limit, offset int) {
	limit = 20
	q := r.URL.Query()
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		limit = min(v, 100)
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}
