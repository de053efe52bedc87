// Package host defines the boundary between the gate and the
// authentication engine that drives it: the decision type reported back
// to the engine, the callback table the engine supplies at plugin
// creation, and the exit-status contract the login scripts are held to.
package host

import "errors"

// Decision is the authorization outcome reported to the host engine.
type Decision string

const (
	Allow Decision = "allow"
	Deny  Decision = "deny"
)

// DefaultDecision is the decision used when the gate cannot produce a
// meaningful one: missing script, failed identity lookup, failed spawn.
// Fail-open is policy: a broken script must never lock an
// administrator out of the login flow.
const DefaultDecision = Allow

// Script exit statuses with reserved meaning (sysexits.h values).
const (
	// StatusNoPerm is the sole exit status that denies authorization.
	StatusNoPerm = 77
	// StatusSoftware is reported by a child that could not launch the
	// script at all. It does not deny authorization.
	StatusSoftware = 71
)

// CallbacksVersion is the minimum callback table version this gate
// accepts. Tables below it are rejected at plugin creation.
const CallbacksVersion = 1

// Context attribute names looked up for the target-user identity.
const (
	AttrUID = "uid"
	AttrGID = "gid"
)

// ErrNoValue is returned by GetContextValue when the engine has no
// value for the requested attribute.
var ErrNoValue = errors.New("host: no context value")

// Callbacks is the capability table the host engine hands to the gate
// at plugin creation. All functions must be non-nil and safe for
// concurrent use by mechanisms on distinct goroutines.
type Callbacks struct {
	// Version identifies the table layout; must be at least CallbacksVersion.
	Version int

	// GetContextValue returns the raw bytes of a named attribute from
	// the engine's per-login context store. The gate validates the
	// width before interpreting the bytes.
	GetContextValue func(name string) ([]byte, error)

	// SetResult reports the decision for the current invocation.
	SetResult func(d Decision) error

	// DidDeactivate acknowledges a deactivation request.
	DidDeactivate func() error
}

// Valid reports whether the table carries a compatible version and a
// full set of callbacks.
func (c Callbacks) Valid() bool {
	return c.Version >= CallbacksVersion &&
		c.GetContextValue != nil &&
		c.SetResult != nil &&
		c.DidDeactivate != nil
}
