// Package identity resolves the numeric identity a login script must
// run under, either the fixed administrative identity or the uid/gid of
// the user logging in, read from the host engine's context store.
package identity

import (
	"encoding/binary"
	"fmt"

	"github.com/inconshreveable/log15"

	"github.com/polofsson/logingate/host"
)

// idWidth is the exact byte width of a context identity value. Anything
// else fails resolution rather than being reinterpreted.
const idWidth = 4

// Resolver reads uid/gid attributes through the host callback. Computed
// fresh per invocation, never cached.
type Resolver struct {
	// Get is the host's context lookup, host.Callbacks.GetContextValue.
	Get func(name string) ([]byte, error)

	Log log15.Logger
}

// Resolve returns the identity to run as. The administrative context
// short-circuits to (0, 0) without consulting the context store. For the
// target-user context any lookup error, missing attribute, or value of
// the wrong width is a resolution failure.
func (r *Resolver) Resolve(asAdmin bool) (uid, gid uint32, err error) {
	if asAdmin {
		return 0, 0, nil
	}
	if uid, err = r.lookup(host.AttrUID); err != nil {
		return 0, 0, err
	}
	if gid, err = r.lookup(host.AttrGID); err != nil {
		return 0, 0, err
	}
	r.Log.Debug("resolved target identity", "uid", uid, "gid", gid)
	return uid, gid, nil
}

func (r *Resolver) lookup(name string) (uint32, error) {
	value, err := r.Get(name)
	if err != nil {
		return 0, fmt.Errorf("context value %q: %w", name, err)
	}
	if len(value) != idWidth {
		return 0, fmt.Errorf("context value %q has width %d, want %d", name, len(value), idWidth)
	}
	return binary.NativeEndian.Uint32(value), nil
}
