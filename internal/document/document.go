// Package document validates Brazilian taxpayer documents: CPF for individuals (11 digits) and
// CNPJ for organizations (14 digits). All functions are pure and safe for concurrent use.
package document

import (
	"errors"
	"strings"
)

const (
	// IndividualLength is the number of digits in a CPF.
	IndividualLength = 11
	// OrganizationLength is the number of digits in a CNPJ.
	OrganizationLength = 14
)

var (
	// ErrInvalidFormat is returned when the input has the wrong length, repeated digits, or an unknown kind.
	ErrInvalidFormat = errors.New("invalid document format")
	// ErrChecksumMismatch is returned when the check digits do not match the preceding digits.
	ErrChecksumMismatch = errors.New("document check digits do not match")
)

// Kind classifies a taxpayer document.
type Kind int

const (
	KindUnknown Kind = iota
	KindIndividual
	KindOrganization
)

func (k Kind) String() string {
	switch k {
	case KindIndividual:
		return "cpf"
	case KindOrganization:
		return "cnpj"
	default:
		return "unknown"
	}
}

// Digits returns s with every non-digit character removed.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Classify returns the kind implied by the digit count of s. It does not verify check digits.
func Classify(s string) Kind {
	switch len(Digits(s)) {
	case IndividualLength:
		return KindIndividual
	case OrganizationLength:
		return KindOrganization
	default:
		return KindUnknown
	}
}

// ValidateIndividual reports whether id is a valid CPF. Punctuation is ignored.
func ValidateIndividual(id string) bool {
	return Validate(KindIndividual, id) == nil
}

// ValidateOrganization reports whether id is a valid CNPJ. Punctuation is ignored.
func ValidateOrganization(id string) bool {
	return Validate(KindOrganization, id) == nil
}

// Validate checks id against the rules for kind. It returns ErrInvalidFormat when the digits
// cannot be a document of that kind, ErrChecksumMismatch when the check digits are wrong, and nil otherwise.
func Validate(kind Kind, id string) error {
	d := Digits(id)
	var want int
	switch kind {
	case KindIndividual:
		want = IndividualLength
	case KindOrganization:
		want = OrganizationLength
	default:
		return ErrInvalidFormat
	}
	if len(d) != want || repeated(d) {
		return ErrInvalidFormat
	}
	body := d[:want-2]
	var check string
	if kind == KindIndividual {
		check = individualCheckDigits(body)
	} else {
		check = organizationCheckDigits(body)
	}
	if d[want-2:] != check {
		return ErrChecksumMismatch
	}
	return nil
}

// CompleteIndividual appends the two CPF check digits to a 9-digit seed.
func CompleteIndividual(seed string) (string, error) {
	d := Digits(seed)
	if len(d) != IndividualLength-2 || len(d) != len(seed) {
		return "", ErrInvalidFormat
	}
	return d + individualCheckDigits(d), nil
}

// CompleteOrganization appends the two CNPJ check digits to a 12-digit seed.
func CompleteOrganization(seed string) (string, error) {
	d := Digits(seed)
	if len(d) != OrganizationLength-2 || len(d) != len(seed) {
		return "", ErrInvalidFormat
	}
	return d + organizationCheckDigits(d), nil
}

// Format masks a document as 000.000.000-00 (CPF) or 00.000.000/0000-00 (CNPJ).
// Input that does not have exactly 11 or 14 digits is returned unchanged.
func Format(s string) string {
	d := Digits(s)
	switch len(d) {
	case IndividualLength:
		return d[0:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:11]
	case OrganizationLength:
		return d[0:2] + "." + d[2:5] + "." + d[5:8] + "/" + d[8:12] + "-" + d[12:14]
	default:
		return s
	}
}

// individualCheckDigits computes both CPF check digits for the 9 leading digits in body.
func individualCheckDigits(body string) string {
	first := individualDigit(body, 10)
	second := individualDigit(body+string(rune('0'+first)), 11)
	return string([]byte{byte('0' + first), byte('0' + second)})
}

// individualDigit weights digits from topWeight down to 2.
func individualDigit(digits string, topWeight int) int {
	sum := 0
	for i := 0; i < len(digits); i++ {
		sum += int(digits[i]-'0') * (topWeight - i)
	}
	r := 11 - sum%11
	if r >= 10 {
		return 0
	}
	return r
}

// organizationCheckDigits computes both CNPJ check digits for the 12 leading digits in body.
func organizationCheckDigits(body string) string {
	first := organizationDigit(body)
	second := organizationDigit(body + string(rune('0'+first)))
	return string([]byte{byte('0' + first), byte('0' + second)})
}

// organizationDigit walks digits right to left with weights cycling 2..9.
func organizationDigit(digits string) int {
	sum := 0
	weight := 2
	for i := len(digits) - 1; i >= 0; i-- {
		sum += int(digits[i]-'0') * weight
		if weight == 9 {
			weight = 2
		} else {
			weight++
		}
	}
	r := sum % 11
	if r < 2 {
		return 0
	}
	return 11 - r
}

func repeated(d string) bool {
	for i := 1; i < len(d); i++ {
		if d[i] != d[0] {
			return false
		}
	}
	return true
}
