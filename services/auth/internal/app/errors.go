package app

import "errors"

var (
	ErrEmailAndPasswordRequired = errors.New("email and password are required")
	ErrEmailAlreadyExists       = errors.New("email already registered")
	ErrInvalidCredentials       = errors.New("invalid email or password")
)
