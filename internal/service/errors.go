package service

import "errors"

var (
	// ErrDuplicateEmail is returned by Register when the email is taken.
	ErrDuplicateEmail = errors.New("email already in use")
	// ErrInvalidCredentials is returned by Login for an unknown email or a wrong
	// password alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthenticated is returned by the token verifier for any unusable token.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrProjectNotFound means the project is missing or owned by someone else.
	ErrProjectNotFound = errors.New("project not found")
	// ErrTodoNotFound means the todo is missing or its project is owned by someone else.
	ErrTodoNotFound = errors.New("todo not found")
)
