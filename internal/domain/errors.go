package domain

import (
	"errors"
	"fmt"
)

var (
	// The document yielded no text (zero pages, zero rows or blank content).
	ErrEmptyDocument = errors.New("empty document")

	// The text was extracted but no line items matched the layout.
	ErrNoDeliveriesRecognized = errors.New("no deliveries recognized")

	// Any failure inside the import transaction; everything was rolled back.
	ErrTransactionFailure = errors.New("import transaction failed")

	// The transaction could not acquire a connection or finish in time.
	ErrBudgetExceeded = errors.New("import transaction budget exceeded")

	ErrInvalidImport     = errors.New("invalid import")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrUnknownLayout     = errors.New("unknown layout profile")
	ErrAlreadyLocated    = errors.New("customer already located")
)

// NoDeliveriesError reports a manifest with zero recognized line items.
// LayoutLooksRight is set when the layout's marker words were present,
// which points to a grammar drift rather than a wrong document.
type NoDeliveriesError struct {
	Profile          string
	LayoutLooksRight bool
}

func (e *NoDeliveriesError) Error() string {
	if e.LayoutLooksRight {
		return fmt.Sprintf(
			"%s: layout %q markers found but no line items matched; the document format may have changed",
			ErrNoDeliveriesRecognized, e.Profile,
		)
	}
	return fmt.Sprintf("%s: document does not look like a %q manifest", ErrNoDeliveriesRecognized, e.Profile)
}

func (e *NoDeliveriesError) Is(target error) bool { return target == ErrNoDeliveriesRecognized }

// ImportError wraps any failure of a route import. It carries the route
// label so multi-route imports can report per-route errors.
type ImportError struct {
	Route          string
	BudgetExceeded bool
	Cause          error
}

func (e *ImportError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Summary(), e.Cause)
	}
	return e.Summary()
}

// Summary names the failure and the route, leaving out the cause.
func (e *ImportError) Summary() string {
	kind := ErrTransactionFailure
	if e.BudgetExceeded {
		kind = ErrBudgetExceeded
	}
	return fmt.Sprintf("%s: route %q", kind, e.Route)
}

func (e *ImportError) Unwrap() []error {
	errs := []error{ErrTransactionFailure}
	if e.BudgetExceeded {
		errs = append(errs, ErrBudgetExceeded)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}
