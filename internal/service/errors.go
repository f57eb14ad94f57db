package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"catalog-api/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token has expired")
)

// Not-found and conflict conditions surface the repository sentinels so that
// callers only need to import this package.
var (
	ErrUserNotFound     = repository.ErrUserNotFound
	ErrCategoryNotFound = repository.ErrCategoryNotFound
	ErrProductNotFound  = repository.ErrProductNotFound
	ErrAlreadyFavorited = repository.ErrFavoriteAlreadyExists
	ErrNotFavorited     = repository.ErrFavoriteNotFound
)

// ValidationError is a client-fixable failure keyed by request field.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError returns an error carrying one message for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string][]string{field: {message}}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], ", ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Messages returned for store-backed rules.
const (
	MsgEmailTaken      = "The email has already been taken."
	MsgCategoryInvalid = "The selected category id is invalid."
	MsgProductInvalid  = "The selected product id is invalid."
)
