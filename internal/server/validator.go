package server

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/TobiSchelling/SignalEngine/internal/pipeline"
)

// AnalyzeRequest is the body of POST /api/v1/analyze.
type AnalyzeRequest struct {
	URL      string `json:"url" validate:"required,http_url"`
	Topic    string `json:"topic" validate:"required,topic"`
	Category string `json:"category" validate:"required,category"`
}

// Validator wraps go-playground/validator with the engine's custom rules.
type Validator struct {
	validator *validator.Validate
}

// NewValidator registers the category and topic rules.
func NewValidator() *Validator {
	v := validator.New()
	_ = v.RegisterValidation("category", categoryValidator)
	_ = v.RegisterValidation("topic", topicValidator)
	return &Validator{validator: v}
}

// Struct validates s against its validate tags.
func (v *Validator) Struct(s any) error {
	return v.validator.Struct(s)
}

func categoryValidator(fl validator.FieldLevel) bool {
	_, err := pipeline.ParseCategory(fl.Field().String())
	return err == nil
}

func topicValidator(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// validationMessage turns validator errors into one readable line.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required", "topic":
			msgs = append(msgs, field+" is required")
		case "http_url":
			msgs = append(msgs, fmt.Sprintf("%s must be an http(s) URL", field))
		case "category":
			msgs = append(msgs, "category must be one of PROFESSIONAL, HEALTHY_LEISURE, NEWS, NOISE")
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s validation", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
