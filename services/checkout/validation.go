package checkout

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/MarcGrol/checkoutbackend/services/checkoutapi"
)

var (
	ukPostcodeRegex = regexp.MustCompile(`(?i)^(GIR 0AA|[A-Z]{1,2}\d[A-Z\d]? ?\d[A-Z]{2})$`)
	phoneRegex      = regexp.MustCompile(`^\+?[0-9]{10,14}$`)
)

func Validate(contact checkoutapi.Contact, address checkoutapi.Address) FieldErrors {
	errs := FieldErrors{}

	if utf8.RuneCountInString(strings.TrimSpace(contact.Name)) < 2 {
		errs["name"] = "Name is required"
	}
	if !validEmail(contact.Email) {
		errs["email"] = "Enter a valid email"
	}

	if utf8.RuneCountInString(strings.TrimSpace(address.Line1)) < 3 {
		errs["line1"] = "Address required"
	}
	if utf8.RuneCountInString(strings.TrimSpace(address.City)) < 2 {
		errs["city"] = "City required"
	}
	if msg := validatePostcode(address.Postcode); msg != "" {
		errs["postcode"] = msg
	}

	if address.Phone != "" && !phoneRegex.MatchString(strings.Join(strings.Fields(address.Phone), "")) {
		errs["phone"] = "Please enter a valid phone number"
	}

	if utf8.RuneCountInString(address.FirstName) < 2 {
		errs["firstName"] = "First name is required"
	}
	if utf8.RuneCountInString(address.LastName) < 2 {
		errs["lastName"] = "Last name is required"
	}

	return errs
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email && strings.Contains(email[strings.LastIndex(email, "@"):], ".")
}

func validatePostcode(postcode string) string {
	switch {
	case len(postcode) < 5:
		return "Postcode required"
	case len(postcode) > 8:
		return "Postcode too long"
	case !ukPostcodeRegex.MatchString(postcode):
		return "Enter a valid UK postcode (e.g., SW1A 1AA)"
	default:
		return ""
	}
}
