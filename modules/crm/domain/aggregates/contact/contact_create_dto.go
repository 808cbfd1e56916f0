package contact

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dazedniteman/pathpal-crm/pkg/constants"
	"github.com/dazedniteman/pathpal-crm/pkg/serrors"
)

type CreateDTO struct {
	Name      string   `json:"name" validate:"required"`
	Email     string   `json:"email" validate:"required,email"`
	Instagram string   `json:"instagram"`
	Followers *int64   `json:"followers"`
	Tags      []string `json:"tags"`
	Bio       string   `json:"bio"`
	Notes     string   `json:"notes"`
}

func (d *CreateDTO) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	d.Instagram = strings.TrimSpace(d.Instagram)
}

func (d *CreateDTO) Ok() (serrors.ValidationErrors, bool) {
	d.Normalize()

	errs := constants.Validate.Struct(d)
	if errs == nil {
		return serrors.ValidationErrors{}, true
	}

	validationErrors := make(serrors.ValidationErrors)
	for _, err := range errs.(validator.ValidationErrors) {
		switch err.Tag() {
		case "required":
			validationErrors[err.Field()] = err.Field() + " is required"
		case "email":
			validationErrors[err.Field()] = "invalid email format"
		default:
			validationErrors[err.Field()] = "invalid value"
		}
	}
	return validationErrors, false
}

func (d *CreateDTO) ToEntity() Contact {
	return New(d.Name, d.Email, d.Instagram, d.Followers, d.Tags, d.Bio, d.Notes)
}
