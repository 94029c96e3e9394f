package carrier

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is shared; validator instances cache struct metadata and are
// safe for concurrent use.
var validate = validator.New()

// ValidateRateRequest checks a rate request against the schema before any
// network activity. The returned error names the offending field and
// constraint and is never retryable.
func ValidateRateRequest(req *RateRequest) *Error {
	if req == nil {
		return NewError(KindValidation, "request: required")
	}
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok || len(fieldErrs) == 0 {
		return NewError(KindValidation, err.Error())
	}
	return NewError(KindValidation, validationMessage(fieldErrs[0]))
}

// validationMessage renders one field error with the wording callers see.
func validationMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "Origin":
		return "origin: required"
	case "Destination":
		return "destination: required"
	case "Packages":
		switch fe.Tag() {
		case "max":
			return "packages: at most 200 packages are allowed"
		default:
			return "packages: at least one package is required"
		}
	case "CountryCode":
		if fe.Tag() == "required" {
			return "Country code is required"
		}
		return "Country code must be exactly 2 characters"
	case "StateProvince":
		return "State/province code must be exactly 2 characters"
	case "PostalCode":
		return "Postal code is required"
	case "City":
		return "City is required"
	case "Line1":
		return "Address line 1 is required"
	case "Weight":
		return "Weight must be positive"
	case "WeightUnit":
		return "Weight unit must be one of LB, KG, OZ"
	case "Length", "Width", "Height":
		return "Dimensions must be positive"
	case "Unit":
		return "Dimension unit must be one of IN, CM"
	case "AccountNumber":
		return "Account number must be exactly 6 characters"
	}
	return fmt.Sprintf("%s: failed %s constraint", fe.Field(), fe.Tag())
}
