// Package crypt wraps DES crypt(3) for admin password verification.
// Credentials are stored as crypt(password, "XX"), matching the account
// database format of the legacy server family.
package crypt

import (
	"crypto/rand"

	descrypt "github.com/digitive/crypt"
)

// saltChars is the crypt(3) salt alphabet.
const saltChars = "./0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// Crypt performs traditional Unix DES crypt(3).
func Crypt(password, salt string) string {
	result, err := descrypt.Crypt(password, salt)
	if err != nil {
		return ""
	}
	return result
}

// RandomSalt returns a fresh two-character crypt(3) salt for hashing a
// new password. Verification reads the salt back out of the stored hash,
// so existing credentials are unaffected.
func RandomSalt() string {
	var b [2]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "XX"
	}
	return string([]byte{
		saltChars[int(b[0])%len(saltChars)],
		saltChars[int(b[1])%len(saltChars)],
	})
}

// CheckPassword verifies a password against a DES-encrypted hash.
func CheckPassword(password, storedHash string) bool {
	if len(storedHash) < 2 {
		return false
	}
	salt := storedHash[:2]
	computed := Crypt(password, salt)
	return computed != "" && computed == storedHash
}
