package checkout

import (
	"fmt"
	"strings"
)

// AddressForm is the raw checkout submission. Fields arrive as strings from
// the HTTP layer and are validated here; there is no implicit binding magic.
type AddressForm struct {
	StreetAddress string
	District      string
	Country       string
	Zip           string
	PaymentOption string
}

// FieldError describes a single invalid form field.
type FieldError struct {
	Field   string
	Message string
}

// FieldErrors is the structured validation failure for a form submission.
// It implements error so services can return it directly.
type FieldErrors []FieldError

func (fe FieldErrors) Error() string {
	fields := make([]string, len(fe))
	for i, e := range fe {
		fields[i] = e.Field
	}
	return fmt.Sprintf("invalid form fields: %s", strings.Join(fields, ", "))
}

// Validate checks the form's field constraints and trims surrounding
// whitespace in place. street_address, country, zip, and payment_option are
// required; district is optional. The country must be a two-letter uppercase
// code. Membership of payment_option in the supported set is deliberately
// not checked here; Submit branches on it and rejects unknown values.
func (f *AddressForm) Validate() FieldErrors {
	f.StreetAddress = strings.TrimSpace(f.StreetAddress)
	f.District = strings.TrimSpace(f.District)
	f.Country = strings.TrimSpace(f.Country)
	f.Zip = strings.TrimSpace(f.Zip)
	f.PaymentOption = strings.TrimSpace(f.PaymentOption)

	var ferrs FieldErrors
	if f.StreetAddress == "" {
		ferrs = append(ferrs, FieldError{Field: "street_address", Message: "this field is required"})
	}
	if f.Country == "" {
		ferrs = append(ferrs, FieldError{Field: "country", Message: "this field is required"})
	} else if !isCountryCode(f.Country) {
		ferrs = append(ferrs, FieldError{Field: "country", Message: "must be a two-letter country code"})
	}
	if f.Zip == "" {
		ferrs = append(ferrs, FieldError{Field: "zip", Message: "this field is required"})
	}
	if f.PaymentOption == "" {
		ferrs = append(ferrs, FieldError{Field: "payment_option", Message: "this field is required"})
	}
	return ferrs
}

// isCountryCode reports whether s looks like an ISO 3166-1 alpha-2 code.
func isCountryCode(s string) bool {
	if len(s) != 2 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}
