package jwt

import "github.com/golang-jwt/jwt"

// Payload defines the JWT claims issued to a signed-in user.
type Payload struct {
	// StandardClaims carries expiry, issue time and issuer as top-level claims.
	jwt.StandardClaims

	// ID is the user's account identifier.
	ID string `json:"id"`

	// Username is the user's unique handle.
	Username string `json:"username"`
}
