package services

import (
	"fmt"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var bcryptCost = bcrypt.DefaultCost

// dummyHash is compared against when the email is unknown so that login
// timing does not reveal whether an account exists.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("timing-equalizer"), bcrypt.DefaultCost)

// NormalizeEmail is the comparison form of an address: trimmed, lowercased.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(v *ValidationError, email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		v.add("email", "email is required")
		return ""
	}
	if len(email) > 255 {
		v.add("email", "email is too long")
		return ""
	}
	parsed, err := mail.ParseAddress(email)
	if err != nil || parsed.Address != email {
		v.add("email", "email is invalid")
		return ""
	}
	return email
}

func validatePassword(v *ValidationError, field, password string, minLen, maxLen int) {
	switch {
	case password == "":
		v.add(field, "password is required")
	case len(password) < minLen:
		v.add(field, fmt.Sprintf("password must be at least %d characters", minLen))
	case len(password) > maxLen:
		v.add(field, fmt.Sprintf("password must be at most %d bytes", maxLen))
	}
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func checkPassword(hash *string, password string) bool {
	if hash == nil || *hash == "" {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(*hash), []byte(password)) == nil
}
