package services

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the request layer.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindForbidden
	KindUpstream
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	case KindUpstream:
		return "upstream"
	case KindPersistence:
		return "persistence"
	}
	return "unknown"
}

// Error is the error type returned by every service. Two Errors match under
// errors.Is when their codes are equal, so callers compare against the
// sentinels below even when details were attached.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func newError(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

var (
	ErrEmptyOrder         = newError(KindValidation, "empty_order", "order must contain at least one item")
	ErrInvalidQuantity    = newError(KindValidation, "invalid_quantity", "quantity must be a positive integer")
	ErrInvalidStatus      = newError(KindValidation, "invalid_status", "invalid order status")
	ErrInvalidPrice       = newError(KindValidation, "invalid_price", "price must be greater than zero")
	ErrInvalidRole        = newError(KindValidation, "invalid_role", "invalid role")
	ErrInvalidInput       = newError(KindValidation, "invalid_input", "invalid input")
	ErrInvalidCredentials = newError(KindValidation, "invalid_credentials", "invalid username or password")

	ErrItemNotFound     = newError(KindNotFound, "item_not_found", "menu item not found")
	ErrItemUnavailable  = newError(KindNotFound, "item_unavailable", "menu item is not available")
	ErrOrderNotFound    = newError(KindNotFound, "order_not_found", "order not found")
	ErrUserNotFound     = newError(KindNotFound, "user_not_found", "user not found")
	ErrCategoryNotFound = newError(KindNotFound, "category_not_found", "category not found")
	ErrMenuItemNotFound = newError(KindNotFound, "menu_item_not_found", "menu item not found")

	ErrCategoryInUse     = newError(KindConflict, "category_in_use", "category still has menu items")
	ErrUserHasOrders     = newError(KindConflict, "user_has_orders", "user still owns orders")
	ErrUsernameTaken     = newError(KindConflict, "username_taken", "username already exists")
	ErrCategoryNameTaken = newError(KindConflict, "category_name_taken", "category name already exists")
	ErrConcurrentUpdate  = newError(KindConflict, "concurrent_update", "order was modified concurrently, retry")

	ErrForbidden        = newError(KindForbidden, "forbidden", "you do not have permission")
	ErrSelfModification = newError(KindForbidden, "self_modification", "administrators cannot change or delete their own account")

	ErrUpstream    = newError(KindUpstream, "upstream", "external service failed")
	ErrPersistence = newError(KindPersistence, "persistence", "database operation failed")
)

// withDetail returns a copy of sentinel whose message carries detail.
func withDetail(sentinel *Error, detail string) error {
	return &Error{
		Kind:    sentinel.Kind,
		Code:    sentinel.Code,
		Message: fmt.Sprintf("%s: %s", sentinel.Message, detail),
	}
}

// persistence wraps a store failure. Errors already classified pass through.
func persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return &Error{
		Kind:    KindPersistence,
		Code:    ErrPersistence.Code,
		Message: fmt.Sprintf("%s failed", op),
		Err:     err,
	}
}

// KindOf resolves the kind of err, KindUnknown when it is not a service error.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return KindUpstream
	}
	return KindUnknown
}

// CodeOf returns the stable code of err, or "" for unclassified errors.
func CodeOf(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}
