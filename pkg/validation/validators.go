package validation

import (
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// Content-quality thresholds.
const (
	// MaxConsecutiveRepeats rejects a field containing the same non-space
	// character this many times in a row.
	MaxConsecutiveRepeats = 5

	// MaxConsonantsPerVowel rejects a field with fewer than one vowel per
	// this many consonants.
	MaxConsonantsPerVowel = 5

	// MaxUppercaseRatio rejects a field whose letters are more than this
	// share uppercase.
	MaxUppercaseRatio = 0.7

	// UppercaseMinLength is the length a field must exceed before the
	// uppercase ratio applies.
	UppercaseMinLength = 10
)

// Regex patterns
var (
	// Letters, spaces, apostrophes, periods and hyphens
	personNameRegex = regexp.MustCompile(`^[\p{L} '.-]+$`)

	// Characters a human might type into a phone field
	phoneCharsRegex = regexp.MustCompile(`^[+0-9 ().-]+$`)

	// E.164-like: no leading zero, 7-15 digits in total
	phoneDigitsRegex = regexp.MustCompile(`^[1-9][0-9]{6,14}$`)

	// Letters, digits, whitespace and common punctuation. No angle brackets.
	messageRegex = regexp.MustCompile(`^[\p{L}\p{M}\p{N}\s\p{Zs}.,!?;:'"()/&@#%*+=_$\[\]’‘“”…-]+$`)
)

// New returns a validator configured with the form tags and JSON field names.
func New() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(jsonTagName)
	RegisterValidators(v)
	return v
}

// RegisterValidators registers custom validators to the validator instance
func RegisterValidators(v *validator.Validate) {
	_ = v.RegisterValidation("person_name", PersonName)
	_ = v.RegisterValidation("phone_e164", PhoneE164)
	_ = v.RegisterValidation("message_text", MessageText)
	_ = v.RegisterValidation("no_repeats", NoRepeats)
	_ = v.RegisterValidation("vowel_ratio", VowelRatio)
	_ = v.RegisterValidation("not_shouting", NotShouting)
}

// jsonTagName reports fields by their JSON name so errors line up with the
// request body the client sent.
func jsonTagName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

// PersonName validates that a string contains only valid name characters
func PersonName(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true // Optional, use required if needed
	}
	return personNameRegex.MatchString(val)
}

// PhoneE164 validates a phone number. Formatting characters are allowed in
// the raw value, but the digits alone must form an E.164-like number.
func PhoneE164(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true
	}
	if !phoneCharsRegex.MatchString(val) {
		return false
	}
	return phoneDigitsRegex.MatchString(DigitsOnly(val))
}

// MessageText validates free text against the allowed character class
func MessageText(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true
	}
	return messageRegex.MatchString(val)
}

// NoRepeats rejects keyboard mashing such as "aaaaa" or "!!!!!"
func NoRepeats(fl validator.FieldLevel) bool {
	return !HasConsecutiveRepeats(fl.Field().String(), MaxConsecutiveRepeats)
}

// VowelRatio rejects strings that look randomly generated
func VowelRatio(fl validator.FieldLevel) bool {
	return !HasExtremeConsonantRatio(fl.Field().String())
}

// NotShouting rejects long fields written mostly in capitals
func NotShouting(fl validator.FieldLevel) bool {
	return !IsShouting(fl.Field().String())
}

// HasConsecutiveRepeats reports whether any rune, spaces included, occurs n
// or more times in a row.
func HasConsecutiveRepeats(s string, n int) bool {
	if n <= 1 {
		return s != ""
	}
	var prev rune
	run := 0
	for _, r := range s {
		if run > 0 && r == prev {
			run++
		} else {
			run = 1
		}
		if run >= n {
			return true
		}
		prev = r
	}
	return false
}

// HasExtremeConsonantRatio reports whether s has fewer than one vowel per
// MaxConsonantsPerVowel consonants. Only Latin letters are counted and "y"
// counts as a vowel. Fewer than MaxConsonantsPerVowel consonants never trips
// the check.
func HasExtremeConsonantRatio(s string) bool {
	vowels, consonants := 0, 0
	for _, r := range strings.ToLower(s) {
		switch {
		case strings.ContainsRune("aeiouy", r):
			vowels++
		case r >= 'a' && r <= 'z':
			consonants++
		}
	}
	return consonants >= MaxConsonantsPerVowel && consonants > MaxConsonantsPerVowel*vowels
}

// IsShouting reports whether more than MaxUppercaseRatio of the letters in s
// are uppercase, for strings longer than UppercaseMinLength runes.
func IsShouting(s string) bool {
	if len([]rune(s)) <= UppercaseMinLength {
		return false
	}
	letters, upper := 0, 0
	for _, r := range s {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.IsUpper(r) {
			upper++
		}
	}
	if letters == 0 {
		return false
	}
	return float64(upper)/float64(letters) > MaxUppercaseRatio
}

// DigitsOnly strips everything but ASCII digits
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
