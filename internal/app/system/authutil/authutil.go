// Package authutil wraps credential verification for local-mode login.
// Hash creation and storage policy belong to account provisioning; this
// package only answers "does this password match this hash".
package authutil

import "golang.org/x/crypto/bcrypt"

// VerifyPassword reports whether password matches the stored bcrypt hash.
// An empty hash never matches (accounts provisioned for sso have none).
func VerifyPassword(hash, password string) bool {
	if hash == "" || password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// HashPassword produces a bcrypt hash for account provisioning and tests.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
