// Package security handles password hashing and verification for the local
// development backend's credential store, using bcrypt.
package security

import (
	"log"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns the bcrypt hash of a plaintext password. Hashing only
// fails on cost misconfiguration; the error is logged and an empty hash
// returned, which can never verify.
func HashPassword(password string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Print(err.Error())
	}
	return string(hash)
}

// CheckPassword compares a bcrypt hash with a plaintext candidate. It returns
// nil on a match and bcrypt.ErrMismatchedHashAndPassword otherwise, which the
// login handler maps to an incorrect-password response.
func CheckPassword(hashedPassword, userPassword string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(userPassword))
}
