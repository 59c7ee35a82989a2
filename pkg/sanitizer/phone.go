package sanitizer

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is assumed for numbers written without a country prefix.
const DefaultRegion = "FR"

func NormalizePhone(phone string) string {
	return NormalizePhoneIn(phone, DefaultRegion)
}

// NormalizePhoneIn formats phone as E.164, reading national numbers in the
// given region. Unparseable or impossible numbers give "".
func NormalizePhoneIn(phone, region string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}

	parsed, err := phonenumbers.Parse(phone, region)
	if err != nil || !phonenumbers.IsPossibleNumber(parsed) {
		return ""
	}
	return phonenumbers.Format(parsed, phonenumbers.E164)
}
