package core

import "golang.org/x/crypto/bcrypt"

// bcryptCost matches the cost the existing user records were hashed with.
const bcryptCost = 10

// HashPassword generates a salted bcrypt hash of a plaintext password.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// CheckPassword reports whether password matches the stored hash.
// Malformed stored hashes compare as a mismatch rather than an error.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
