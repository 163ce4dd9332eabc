package password

import "strings"

// SymbolSet is the fixed punctuation set accepted as special characters.
const SymbolSet = "!@#$%^&*()_+-=[]{}|;:,.<>?"

const minPasswordLength = 8

// Strength rule descriptions, one per violated rule.
const (
	ViolationLength    = "password must be at least 8 characters"
	ViolationLowercase = "password must contain a lowercase letter"
	ViolationUppercase = "password must contain an uppercase letter"
	ViolationDigit     = "password must contain a digit"
	ViolationSymbol    = "password must contain a special character"
)

// Strength checks password against the policy and returns every violated
// rule, not just the first. ok is true when violations is empty.
func Strength(password string) (ok bool, violations []string) {
	if len(password) < minPasswordLength {
		violations = append(violations, ViolationLength)
	}

	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, c := range password {
		switch {
		case c >= 'a' && c <= 'z':
			hasLower = true
		case c >= 'A' && c <= 'Z':
			hasUpper = true
		case c >= '0' && c <= '9':
			hasDigit = true
		case strings.ContainsRune(SymbolSet, c):
			hasSymbol = true
		}
	}

	if !hasLower {
		violations = append(violations, ViolationLowercase)
	}
	if !hasUpper {
		violations = append(violations, ViolationUppercase)
	}
	if !hasDigit {
		violations = append(violations, ViolationDigit)
	}
	if !hasSymbol {
		violations = append(violations, ViolationSymbol)
	}

	return len(violations) == 0, violations
}
