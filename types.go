package logingate

import "fmt"

// Phase places a mechanism in the login flow relative to the home
// directory mount.
type Phase int

const (
	BeforeHomeMount Phase = iota
	AfterHomeMount
)

// String returns the phase component of the script name.
func (p Phase) String() string {
	if p == BeforeHomeMount {
		return "premount"
	}
	return "postmount"
}

// RunContext selects the identity the login script runs under.
type RunContext int

const (
	// RunAsRoot executes the script under the administrative identity.
	RunAsRoot RunContext = iota
	// RunAsUser executes the script under the identity of the user
	// logging in, resolved from the engine's context store.
	RunAsUser
)

// String returns the context component of the script name.
func (c RunContext) String() string {
	if c == RunAsRoot {
		return "root"
	}
	return "user"
}

// Mode is the parsed form of a mechanism mode-selector string.
type Mode struct {
	Phase   Phase
	Context RunContext
}

// ScriptName returns the script file name for this mode, one of
// premount-root, premount-user, postmount-root, postmount-user.
func (m Mode) ScriptName() string {
	return m.Phase.String() + "-" + m.Context.String()
}

// String returns the mode-selector string this mode parses from.
func (m Mode) String() string { return m.ScriptName() }

// ParseMode maps a mode-selector string to a Mode. Exactly four selectors
// are recognized; anything else is a configuration error and no mechanism
// may be created from it.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "premount-root":
		return Mode{BeforeHomeMount, RunAsRoot}, nil
	case "premount-user":
		return Mode{BeforeHomeMount, RunAsUser}, nil
	case "postmount-root":
		return Mode{AfterHomeMount, RunAsRoot}, nil
	case "postmount-user":
		return Mode{AfterHomeMount, RunAsUser}, nil
	default:
		return Mode{}, fmt.Errorf("unknown mechanism mode %q", s)
	}
}
