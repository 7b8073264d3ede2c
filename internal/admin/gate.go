// Package admin implements the shared-password gate that guards every
// mutating operation.
package admin

import "crypto/subtle"

// Gate authorizes admin actions against a single configured secret.
// It fails closed: an empty secret or an empty submission never passes.
type Gate struct {
	secret string
}

// NewGate creates a Gate for the configured secret.
func NewGate(secret string) *Gate {
	return &Gate{secret: secret}
}

// Authorize reports whether the submitted password matches the secret.
// Comparison is constant-time.
func (g *Gate) Authorize(password string) bool {
	if g.secret == "" || password == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(g.secret), []byte(password)) == 1
}
