package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/isdelr/ecofinds/internal/models"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report problems under the form field name the user actually saw.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return models.IsCategory(fl.Field().String())
	})
	return v
}

// check validates a tagged input struct.
func check(input interface{}) *ValidationError {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return (*ValidationError)(nil).add("input", err.Error())
	}

	var verr *ValidationError
	for _, fe := range fieldErrs {
		verr = verr.add(fe.Field(), describe(fe))
	}
	return verr
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "category":
		return "must be one of " + strings.Join(models.Categories, ", ")
	default:
		return "is invalid"
	}
}

// ListingInput is the raw listing form.
type ListingInput struct {
	Title       string `form:"title" validate:"required,max=120"`
	Description string `form:"description" validate:"max=5000"`
	Category    string `form:"category" validate:"required,category"`
	Price       string `form:"price" validate:"required"`
	ImageURL    string `form:"image_url" validate:"max=255"`
}

// fields validates the form and converts it into listing attributes.
func (in ListingInput) fields() (models.ProductFields, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	in.Price = strings.TrimSpace(in.Price)
	in.ImageURL = strings.TrimSpace(in.ImageURL)

	verr := check(in)

	var price decimal.Decimal
	if in.Price != "" {
		var err error
		price, err = decimal.NewFromString(in.Price)
		switch {
		case err != nil:
			verr = verr.add("price", "must be a number")
		case price.IsNegative():
			verr = verr.add("price", "must not be negative")
		}
	}

	if verr != nil {
		return models.ProductFields{}, verr
	}
	return models.ProductFields{
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Price:       price,
		ImageURL:    in.ImageURL,
	}, nil
}

// RegisterInput is the raw registration form.
type RegisterInput struct {
	Email    string `form:"email" validate:"required,email,max=120"`
	Username string `form:"username" validate:"max=80"`
	Password string `form:"password" validate:"required,max=72"`
}

// ProfileInput is the raw profile form. Blank fields keep their current value.
type ProfileInput struct {
	Username string `form:"username" validate:"max=80"`
	Email    string `form:"email" validate:"omitempty,email,max=120"`
}

type passwordInput struct {
	Password string `form:"new_password" validate:"required,max=72"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
