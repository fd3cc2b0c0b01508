package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist (or belongs to a different tenant).
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing required field, malformed clock time).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrConflict is returned when an operation is rejected because of the
// current state of its targets: bookings already routed elsewhere, a merge
// across shifts or office anchors, a vehicle assigned before a vendor.
// Handlers should map this to HTTP 409 Conflict.
var ErrConflict = errors.New("conflict")

// ErrDataIntegrity is returned when stored data violates an invariant the
// engine relies on, most notably a route referencing a shift that no longer
// exists for its tenant. It is deliberately distinct from ErrNotFound so
// callers cannot confuse corruption with an ordinary miss.
// Handlers should map this to HTTP 500 with diagnostic detail.
var ErrDataIntegrity = errors.New("data integrity error")

// ErrNoRoute is returned when the routing provider cannot produce a viable
// route for the given coordinates (unreachable points, cross-region
// locations, provider timeout). Callers must treat it as a blocking failure,
// never as permission to persist a partial route.
var ErrNoRoute = errors.New("no viable route")
