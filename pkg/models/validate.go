package models

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	validate = newValidator()
	phoneRe  = regexp.MustCompile(`^[+0-9\- ]{6,20}$`)
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("timeslot", func(fl validator.FieldLevel) bool {
		return IsValidTimeSlot(fl.Field().String())
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phoneRe.MatchString(fl.Field().String())
	})
	return v
}

type ProfileUpdate struct {
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone" validate:"omitempty,phone"`
	Address string `json:"address"`
}

func (u *ProfileUpdate) Normalize() {
	u.Name = strings.TrimSpace(u.Name)
	u.Phone = strings.TrimSpace(u.Phone)
	u.Address = strings.TrimSpace(u.Address)
}

func (u ProfileUpdate) Validate() error {
	return translate(validate.Struct(u))
}

func ValidatePhone(phone string) error {
	if !phoneRe.MatchString(phone) {
		return &ValidationError{Field: "phone", Reason: "enter a valid phone number"}
	}
	return nil
}

func (r CreateBookingRequest) Validate() error {
	return translate(validate.Struct(r))
}

func (s *Service) Validate() error {
	return translate(validate.Struct(s))
}

// ValidateForBooking checks that the profile carries what a booking copies.
// Address is optional.
func (p *Profile) ValidateForBooking() error {
	if err := translate(validate.Struct(p.snapshot())); err != nil {
		return &ValidationError{Field: "profile", Reason: "incomplete profile, " + err.Error()}
	}
	return nil
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Reason: err.Error()}
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, strings.ToLower(fe.Field())+" failed "+fe.Tag())
	}
	return &ValidationError{Field: strings.ToLower(verrs[0].Field()), Reason: strings.Join(fields, "; ")}
}
