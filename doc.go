// Package logingate is a trust-boundary gate for interactive login
// flows. At configured points in the flow the host authentication
// engine invokes a mechanism; the gate locates the matching
// administrator-managed script, verifies that the script and its entire
// containing path are untamperable by non-privileged users, executes it
// under the target identity, and reports an allow/deny decision back to
// the engine.
//
// The only way a script denies authorization is by exiting with status
// 77. Every failure inside the gate itself (missing script, untrusted
// path, identity lookup failure, spawn failure) yields the configured
// default decision (allow unless overridden), so misconfiguration never
// locks an administrator out of the login flow.
//
// The host engine drives the gate through a Plugin created with a
// host.Callbacks table and Mechanism instances created per login-flow
// step:
//
//	p, err := logingate.New(cb, logingate.Options{})
//	m, err := p.Create("premount-root")
//	decision, err := m.Invoke()
//	m.Deactivate()
//	m.Destroy()
package logingate
