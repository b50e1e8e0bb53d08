package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kjannette/tradejournal/internal/models"
)

const maxBodyBytes = 1 << 20

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeAndValidate reads a JSON body into dst and validates it. The
// returned message is ready to send as a 422 detail.
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) (string, bool) {
	if msg, ok := decodeJSON(w, r, dst); !ok {
		return msg, false
	}
	if err := s.validate.Struct(dst); err != nil {
		return validationMessage(err), false
	}
	return "", true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) (string, bool) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return "request body is required", false
		}
		return "invalid JSON body: " + err.Error(), false
	}
	return "", true
}

// Fields a create requires but an update may omit.
var createOnlyRequired = []string{"Pair", "EntryPrice", "StopLoss", "PositionSize"}

// validateUpdate checks a partial trade. Absent fields are fine; supplied
// ones must still satisfy the create rules.
func (s *Server) validateUpdate(in *models.TradeInput) string {
	if err := s.validate.StructExcept(in, createOnlyRequired...); err != nil {
		return validationMessage(err)
	}
	var msgs []string
	check := func(name string, v any, tag string) {
		if err := s.validate.Var(v, tag); err != nil {
			msgs = append(msgs, fieldMessage(name, err.(validator.ValidationErrors)[0]))
		}
	}
	if in.Pair != nil {
		check("pair", *in.Pair, "min=1,max=32")
	}
	if in.EntryPrice != nil {
		check("entry_price", *in.EntryPrice, "gt=0")
	}
	if in.StopLoss != nil {
		check("stop_loss", *in.StopLoss, "gt=0")
	}
	if in.PositionSize != nil {
		check("position_size", *in.PositionSize, "gt=0")
	}
	return strings.Join(msgs, "; ")
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe.Field(), fe))
	}
	return strings.Join(msgs, "; ")
}

func fieldMessage(name string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "email":
		return name + " must be a valid email address"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", name, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", name, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", name, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", name, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", name, fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", name, fe.Tag())
}
