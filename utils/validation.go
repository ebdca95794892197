package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"go-bookshop/models"
)

var (
	emailPattern  = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*\.[a-zA-Z]{2,}$`)
	phonePattern  = regexp.MustCompile(`^0\d{9}$`)
	zipPattern    = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	digitsPattern = regexp.MustCompile(`^\d+$`)
)

// ValidationErrors maps a checkout form field to its message
type ValidationErrors map[string]string

// ValidateCustomerInfo checks the checkout form fields. Notes are free text and
// the ZIP code is optional.
func ValidateCustomerInfo(info models.CustomerInfo) ValidationErrors {
	errs := ValidationErrors{}

	name := strings.TrimSpace(info.FullName)
	switch {
	case name == "":
		errs["fullName"] = "Full name is required"
	case utf8.RuneCountInString(info.FullName) < 3:
		errs["fullName"] = "Full name must be at least 3 characters"
	case digitsPattern.MatchString(info.FullName):
		errs["fullName"] = "Full name cannot contain only numbers"
	}

	switch {
	case strings.TrimSpace(info.Email) == "":
		errs["email"] = "Email is required"
	case !emailPattern.MatchString(info.Email):
		errs["email"] = "Please enter a valid email address (e.g., example@domain.com)"
	}

	switch {
	case strings.TrimSpace(info.Phone) == "":
		errs["phone"] = "Phone number is required"
	case !phonePattern.MatchString(info.Phone):
		errs["phone"] = "Phone number must start with 0 and contain 10 digits (e.g., 0512345678)"
	}

	switch {
	case strings.TrimSpace(info.Address) == "":
		errs["address"] = "Address is required"
	case utf8.RuneCountInString(info.Address) < 5:
		errs["address"] = "Address must be at least 5 characters"
	case digitsPattern.MatchString(info.Address):
		errs["address"] = "Please enter a complete address, not just numbers"
	}

	switch {
	case strings.TrimSpace(info.City) == "":
		errs["city"] = "City is required"
	case utf8.RuneCountInString(info.City) < 2:
		errs["city"] = "City name must be at least 2 characters"
	case digitsPattern.MatchString(info.City):
		errs["city"] = "City name cannot be just numbers"
	}

	if zip := strings.TrimSpace(info.ZipCode); zip != "" && !zipPattern.MatchString(zip) {
		errs["zipCode"] = "Please enter a valid ZIP code (12345 or 12345-6789)"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}
