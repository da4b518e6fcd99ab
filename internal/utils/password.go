package utils

import "golang.org/x/crypto/bcrypt"

const MinPasswordLength = 6

// MaxPasswordLength is the bcrypt input limit in bytes.
const MaxPasswordLength = 72

func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(b), err
}

// CheckPassword reports whether password matches hash. A malformed hash counts as a mismatch.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
