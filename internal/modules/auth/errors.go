package auth

import "errors"

var (
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrUsernameAlreadyExists = errors.New("username already taken")
	ErrInvalidRefreshToken   = errors.New("invalid refresh token")
	ErrRefreshTokenReused    = errors.New("refresh token reuse detected")
)
