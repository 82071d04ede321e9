package auth

import "fmt"

var (
	ErrInvalidToken         = fmt.Errorf("invalid token")
	ErrInvalidSigningMethod = fmt.Errorf("invalid signing method")
	ErrInvalidPassword      = fmt.Errorf("invalid password")
	ErrSessionRevoked       = fmt.Errorf("session revoked or expired")
)
