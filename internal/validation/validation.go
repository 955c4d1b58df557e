// Package validation holds the named write-path rules for users and tours.
// Services normalise a record first, then validate it, then persist it.
package validation

import (
	"errors"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gosimple/slug"

	"github.com/khoido2003/natour-api/internal/models"
	appErrors "github.com/khoido2003/natour-api/pkg/errors"
)

// FieldError describes one failed rule.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// Validator wraps a validator engine with the domain rules registered.
type Validator struct {
	engine *validator.Validate
}

// New constructs a Validator with the role and difficulty tags and the
// DiscountBelowPrice tour rule registered.
func New() *Validator {
	engine := validator.New()
	engine.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = engine.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return models.UserRole(fl.Field().String()).Valid()
	})
	_ = engine.RegisterValidation("difficulty", func(fl validator.FieldLevel) bool {
		return models.Difficulty(fl.Field().String()).Valid()
	})
	engine.RegisterStructValidation(func(sl validator.StructLevel) {
		tour := sl.Current().Interface().(models.Tour)
		if !DiscountBelowPrice(tour.Price, tour.PriceDiscount) {
			sl.ReportError(tour.PriceDiscount, "priceDiscount", "PriceDiscount", "discount_below_price", "")
		}
	}, models.Tour{})

	return &Validator{engine: engine}
}

// Struct validates any tagged value and maps failures to a VALIDATION_ERROR.
func (v *Validator) Struct(s interface{}) error {
	return toAppError(v.engine.Struct(s))
}

// User validates a user about to be written.
func (v *Validator) User(u *models.User) error {
	return v.Struct(u)
}

// Tour validates a tour about to be written.
func (v *Validator) Tour(t *models.Tour) error {
	return v.Struct(t)
}

// DiscountBelowPrice holds when no discount is set or the discount is strictly below price.
func DiscountBelowPrice(price float64, discount *float64) bool {
	return discount == nil || *discount < price
}

// RoundRating rounds a rating to one decimal place.
func RoundRating(r float64) float64 {
	return math.Round(r*10) / 10
}

// NormalizeUser trims and lowercases the email and fills defaults.
func NormalizeUser(u *models.User) {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Photo == "" {
		u.Photo = models.DefaultPhoto
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}
}

// NormalizeTour trims text fields, derives the slug and rounds the rating.
func NormalizeTour(t *models.Tour) {
	t.Name = strings.TrimSpace(t.Name)
	t.Summary = strings.TrimSpace(t.Summary)
	t.Description = strings.TrimSpace(t.Description)
	t.Slug = slug.Make(t.Name)
	t.RatingsAverage = RoundRating(t.RatingsAverage)

	if !t.StartLocation.IsZero() && t.StartLocation.Type == "" {
		t.StartLocation.Type = "Point"
	}
	for i := range t.Locations {
		if t.Locations[i].Type == "" {
			t.Locations[i].Type = "Point"
		}
	}
	if t.Images == nil {
		t.Images = []string{}
	}
	if t.Guides == nil {
		t.Guides = []string{}
	}
}

func toAppError(err error) error {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, appErrors.ErrValidation.Message)
	}

	details := make([]FieldError, 0, len(verrs))
	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, FieldError{Field: fe.Field(), Rule: fe.Tag(), Param: fe.Param()})
		messages = append(messages, describe(fe))
	}

	appErr := appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Invalid input data. "+strings.Join(messages, ". "))
	appErr.Details = details
	return appErr
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return "please provide a valid email"
	case "min", "max", "gt", "gte", "lt", "lte":
		return fe.Field() + " must satisfy " + fe.Tag() + "=" + fe.Param()
	case "eqfield":
		return "passwords are not the same"
	case "role":
		return "role is either: user, guide, lead-guide, admin"
	case "difficulty":
		return "difficulty is either: easy, medium, difficult"
	case "discount_below_price":
		return "discount price should be below regular price"
	default:
		return fe.Field() + " is invalid"
	}
}
