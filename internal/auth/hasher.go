package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltBytes   = 16
	digestBytes = 32
	// Changing the iteration count invalidates every stored hash.
	hashIterations = 10000
)

// HashPassword derives a salted one-way digest of password using PBKDF2
// with SHA-256. When salt is empty a fresh random salt is generated.
// Returns the digest as a 64-character hex string and the salt as a
// 32-character hex string. Deterministic for a fixed (password, salt)
// pair, which login relies on for verification.
func HashPassword(password, salt string) (hash, usedSalt string) {
	if salt == "" {
		salt = newSalt()
	}
	key := pbkdf2.Key([]byte(password), []byte(salt), hashIterations, digestBytes, sha256.New)
	return hex.EncodeToString(key), salt
}

func newSalt() string {
	b := make([]byte, saltBytes)
	// crypto/rand.Read never fails on supported platforms
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}
