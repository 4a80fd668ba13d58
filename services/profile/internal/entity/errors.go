package entity

import "errors"

var (
	ErrUsernameTaken  = errors.New("username already taken")
	ErrUsernameEmpty  = errors.New("username must not be empty")
	ErrAvatarTooLarge = errors.New("avatar must be under 1 MiB")
	ErrNotFound       = errors.New("user not found")
)
