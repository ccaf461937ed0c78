package domain

import "errors"

var (
	// common errors
	ErrNotFound = errors.New("not found")

	// trading errors
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnknownSymbol      = errors.New("unknown symbol")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInsufficientShares = errors.New("insufficient shares")

	// account errors
	ErrInvalidCredentials = errors.New("invalid username and/or password")
	ErrDuplicateUsername  = errors.New("username already taken")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrMissingField       = errors.New("missing required field")
)
