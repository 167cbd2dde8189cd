package checkout

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// FieldResult is the outcome of a single field check.
type FieldResult struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

func ok() FieldResult { return FieldResult{Valid: true} }

func invalid(msg string) FieldResult { return FieldResult{Message: msg} }

var (
	zipPattern   = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	phonePattern = regexp.MustCompile(`^\+?[\d\s()\-]+$`)
	cvvPattern   = regexp.MustCompile(`^\d{3,4}$`)
	expiryFormat = regexp.MustCompile(`^(\d{2})/(\d{2})$`)

	validate = validator.New()
)

// Required checks that value is non-empty after trimming.
func Required(field, value string) FieldResult {
	if strings.TrimSpace(value) == "" {
		return invalid(field + " is required")
	}
	return ok()
}

// ValidateZIP accepts 12345 and 12345-6789.
func ValidateZIP(zip string) FieldResult {
	if !zipPattern.MatchString(strings.TrimSpace(zip)) {
		return invalid("Please enter a valid ZIP code")
	}
	return ok()
}

// ValidatePhone allows digits, spaces, parentheses, hyphens and a leading +.
func ValidatePhone(phone string) FieldResult {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return invalid("Phone is required")
	}
	if !phonePattern.MatchString(phone) {
		return invalid("Please enter a valid phone number")
	}
	return ok()
}

// ValidateEmail checks the local@domain.tld shape.
func ValidateEmail(email string) FieldResult {
	email = strings.TrimSpace(email)
	if email == "" {
		return invalid("Email is required")
	}
	if err := validate.Var(email, "email"); err != nil || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return invalid("Please enter a valid email address")
	}
	return ok()
}

func digitsOnly(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), " ", "")
}

// ValidateCardNumber requires 13 to 16 digits once spaces are stripped.
func ValidateCardNumber(number string) FieldResult {
	n := digitsOnly(number)
	if n == "" {
		return invalid("Card number is required")
	}
	if _, err := strconv.ParseUint(n, 10, 64); err != nil || len(n) < 13 || len(n) > 16 {
		return invalid("Please enter a valid card number")
	}
	return ok()
}

// ValidateExpiry checks an MM/YY expiry against now. Cards expiring in the
// current month are still accepted.
func ValidateExpiry(expiry string, now time.Time) FieldResult {
	m := expiryFormat.FindStringSubmatch(strings.TrimSpace(expiry))
	if m == nil {
		return invalid("Expiry must be in MM/YY format")
	}
	month, _ := strconv.Atoi(m[1])
	yy, _ := strconv.Atoi(m[2])
	if month < 1 || month > 12 {
		return invalid("Invalid expiry month")
	}

	year := 2000 + yy
	if year < now.Year() || (year == now.Year() && month < int(now.Month())) {
		return invalid("Card has expired")
	}
	return ok()
}

// ValidateCVV requires 3 or 4 digits.
func ValidateCVV(cvv string) FieldResult {
	if !cvvPattern.MatchString(strings.TrimSpace(cvv)) {
		return invalid("Please enter a valid CVV")
	}
	return ok()
}

// Network is a card network inferred from the leading digit.
type Network string

const (
	NetworkVisa       Network = "visa"
	NetworkMastercard Network = "mastercard"
	NetworkAmex       Network = "amex"
	NetworkUnknown    Network = "unknown"
)

// CardNetwork maps the first digit to a network. It is not a BIN lookup.
func CardNetwork(number string) Network {
	n := digitsOnly(number)
	if n == "" {
		return NetworkUnknown
	}
	switch n[0] {
	case '4':
		return NetworkVisa
	case '5':
		return NetworkMastercard
	case '3':
		return NetworkAmex
	}
	return NetworkUnknown
}

// FieldErrors maps a form field to its error message.
type FieldErrors map[string]string

func (fe FieldErrors) check(field string, r FieldResult) {
	if !r.Valid {
		fe[field] = r.Message
	}
}

// ValidateShipping validates a shipping form. Email is only required for
// guest checkout.
func ValidateShipping(f ShippingForm, guest bool) FieldErrors {
	errs := FieldErrors{}
	if guest || strings.TrimSpace(f.Email) != "" {
		errs.check("email", ValidateEmail(f.Email))
	}
	errs.check("fullName", Required("Full name", f.FullName))
	errs.check("addressLine1", Required("Address", f.AddressLine1))
	errs.check("city", Required("City", f.City))
	errs.check("state", Required("State", f.State))
	errs.check("zip", ValidateZIP(f.ZIP))
	errs.check("phone", ValidatePhone(f.Phone))
	return errs
}

// ValidatePayment validates card details.
func ValidatePayment(p PaymentForm, now time.Time) FieldErrors {
	errs := FieldErrors{}
	errs.check("cardName", Required("Name on card", p.CardName))
	errs.check("cardNumber", ValidateCardNumber(p.CardNumber))
	errs.check("expiry", ValidateExpiry(p.Expiry, now))
	errs.check("cvv", ValidateCVV(p.CVV))
	return errs
}

// ValidationError carries every invalid field of a checkout request.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("checkout validation failed for %d field(s)", len(e.Fields))
}
