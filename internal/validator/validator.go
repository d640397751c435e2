// Package validator accumulates field-level validation errors.
package validator

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
)

// Validator holds a map of field names to validation error messages.
type Validator struct {
	Errors map[string]string
}

// New returns an empty Validator.
func New() *Validator {
	return &Validator{Errors: make(map[string]string)}
}

// Valid reports whether no errors have been recorded.
func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

// AddError records message for key. The first failure for a key wins.
func (v *Validator) AddError(key, message string) {
	if _, exists := v.Errors[key]; !exists {
		v.Errors[key] = message
	}
}

// Check adds an error for key only when ok is false.
func (v *Validator) Check(ok bool, key, message string) {
	if !ok {
		v.AddError(key, message)
	}
}

// String renders the errors as `key message` pairs in key order.
func (v *Validator) String() string {
	keys := make([]string, 0, len(v.Errors))
	for k := range v.Errors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+v.Errors[k])
	}
	return strings.Join(parts, "; ")
}

// In returns true if value is in list.
func In(value string, list ...string) bool {
	for i := range list {
		if value == list[i] {
			return true
		}
	}
	return false
}

// RuneLen counts characters rather than bytes, so accented titles are measured
// the way a reader would count them.
func RuneLen(value string) int {
	return utf8.RuneCountInString(value)
}

// Between reports whether the character length of value lies in [min, max].
func Between(value string, min, max int) bool {
	n := RuneLen(value)
	return n >= min && n <= max
}

// Mime reports whether the detected type matches one of mimetypes, aliases included.
func Mime(mtype *mimetype.MIME, mimetypes ...string) bool {
	return mimetype.EqualsAny(mtype.String(), mimetypes...)
}
