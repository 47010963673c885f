package models

import "errors"

var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrUserNotFound   = errors.New("user not found")
	ErrInvalidStatus  = errors.New("invalid status")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNotLoggedIn    = errors.New("not logged in")
	ErrCacheMiss      = errors.New("cache miss")
	ErrRemoteRejected = errors.New("remote request rejected")
	ErrInvalidLogin   = errors.New("email and password are required")
)
