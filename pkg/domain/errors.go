package domain

import "errors"

// Authentication errors
var (
	ErrTeacherNotFound      = errors.New("teacher not found")
	ErrTeacherAlreadyExists = errors.New("teacher already exists")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrAccountDeactivated   = errors.New("account is deactivated")
	ErrInvalidToken         = errors.New("invalid token")
)

// OAuth errors
var (
	ErrStateMissing      = errors.New("no oauth state stored for this browser")
	ErrStateMismatch     = errors.New("oauth state does not match")
	ErrStateExpired      = errors.New("oauth state expired")
	ErrTokenExchange     = errors.New("token exchange failed")
	ErrProfileFetch      = errors.New("profile fetch failed")
	ErrIncompleteProfile = errors.New("profile missing required fields")
	ErrEmailMissing      = errors.New("profile has no email address")
)

// Class and student errors
var (
	ErrClassNotFound       = errors.New("class not found")
	ErrDuplicateJoinCode   = errors.New("join code already in use")
	ErrStudentNotFound     = errors.New("student not found")
	ErrDuplicateAccessCode = errors.New("access code already in use")
)

// Validation errors
var (
	ErrInvalidEmail = errors.New("invalid email address")
	ErrWeakPassword = errors.New("password does not meet requirements")
)
