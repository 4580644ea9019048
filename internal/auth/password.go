package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is the adaptive work factor (2^10 rounds)
const bcryptCost = 10

// HashPassword returns a bcrypt hash of password with a fresh random salt
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches the stored hash.
// The comparison is constant-time.
func VerifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
