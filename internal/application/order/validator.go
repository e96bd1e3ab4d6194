package order

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strings"

	"github.com/bignstrong/RailGuard/internal/domain/shared"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// phonePattern is the storefront's phone mask, e.g. "+7 (999) 123-45-67"
var phonePattern = regexp.MustCompile(`^\+7\s?\(\d{3}\)\s?\d{3}-\d{2}-\d{2}$`)

// maxAmount is the first value the orders.total_price DECIMAL(12,2) column cannot hold
var maxAmount = decimal.New(1, 10)

// Validator performs structural checks on checkout payloads
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a Validator with the shop's custom tags registered
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	// Registration only fails for empty tags or nil funcs
	_ = v.RegisterValidation("ru_phone", validatePhone)
	_ = v.RegisterValidation("image_ref", validateImageRef)
	_ = v.RegisterValidation("money", validateMoney)
	return &Validator{validate: v}
}

// Validate returns a *shared.ValidationError listing every rejected field
func (v *Validator) Validate(req *CreateOrderRequest) error {
	err := v.validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return shared.NewValidationError("Invalid request data", shared.FieldError{Field: "", Message: err.Error()})
	}
	details := make([]shared.FieldError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, shared.FieldError{
			Field:   fieldPath(fe.Namespace()),
			Message: fieldMessage(fe),
		})
	}
	return shared.NewValidationError("Invalid request data", details...)
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

// fieldPath drops the root struct name: "CreateOrderRequest.items[0].price" -> "items[0].price"
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "min":
		return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "ru_phone":
		return "must match +7 (XXX) XXX-XX-XX"
	case "image_ref":
		return "must be an http(s) URL or an absolute path"
	case "money":
		return "must have at most 2 decimal places and be less than " + maxAmount.String()
	}
	return "is invalid"
}

func validatePhone(fl validator.FieldLevel) bool {
	return phonePattern.MatchString(fl.Field().String())
}

// validateImageRef accepts absolute site paths and http(s) URLs
func validateImageRef(fl validator.FieldLevel) bool {
	ref := fl.Field().String()
	if strings.HasPrefix(ref, "/") && !strings.HasPrefix(ref, "//") {
		return true
	}
	u, err := url.ParseRequestURI(ref)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// validateMoney accepts amounts with kopeck precision that fit the orders table
func validateMoney(fl validator.FieldLevel) bool {
	d := decimal.NewFromFloat(fl.Field().Float())
	return d.Equal(d.Round(2)) && d.LessThan(maxAmount)
}
