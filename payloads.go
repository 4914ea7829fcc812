package session

import (
	stderrors "errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
	"github.com/nyaruka/phonenumbers"
)

// DefaultPhoneRegion is used when a phone number has no country prefix
const DefaultPhoneRegion = "US"

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// RegisterRequest payload
type RegisterRequest struct {
	Username        string `form:"username" json:"username"`
	Email           string `form:"email" json:"email"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"-"`
	Phone           string `form:"phone_number" json:"phoneNumber,omitempty"`
}

// Validate will validate the payload
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(3, 50)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password)),
		),
		validation.Field(&r.Phone, validation.By(validatePhone)),
	)
}

// Normalize trims input and formats the phone number as E.164
func (r RegisterRequest) Normalize() RegisterRequest {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)
	if phone, err := NormalizePhone(r.Phone); err == nil {
		r.Phone = phone
	}
	return r
}

// VerifyRequest carries the code sent to the user's email
type VerifyRequest struct {
	Code string `form:"code" json:"verificationCode"`
}

func (r VerifyRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Code, validation.Required, is.Alphanumeric, validation.Length(4, 12)),
	)
}

// ResendRequest asks the backend for a new verification code
type ResendRequest struct {
	Email string `form:"email" json:"email"`
}

func (r ResendRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

// NormalizePhone parses phone and formats it as E.164. Empty input is
// returned as is.
func NormalizePhone(phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", nil
	}
	num, err := phonenumbers.Parse(phone, DefaultPhoneRegion)
	if err != nil {
		return "", err
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", stderrors.New("invalid phone number")
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

func validatePhone(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := NormalizePhone(s); err != nil {
		return stderrors.New("must be a valid phone number")
	}
	return nil
}

// ValidateStringEquals checks the value matches str
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return stderrors.New("values must match")
		}
		return nil
	}
}

// FormatValidationErrors flattens ozzo validation errors into field -> message
func FormatValidationErrors(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}
	var verrs validation.Errors
	if stderrors.As(err, &verrs) {
		for field, ferr := range verrs {
			if ferr != nil {
				out[field] = ferr.Error()
			}
		}
		return out
	}
	out["form"] = err.Error()
	return out
}

type validatable interface {
	Validate() error
}

func validatePayload(v validatable) error {
	if err := v.Validate(); err != nil {
		fields := FormatValidationErrors(err)
		meta := make(map[string]any, len(fields))
		for k, v := range fields {
			meta[k] = v
		}
		return errors.Wrap(err, errors.CategoryValidation, "invalid payload").
			WithCode(errors.CodeBadRequest).
			WithTextCode(TextCodeInvalidPayload).
			WithMetadata(meta)
	}
	return nil
}
