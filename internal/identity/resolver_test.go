package identity

import (
	"encoding/binary"
	"testing"

	"github.com/inconshreveable/log15"

	"github.com/polofsson/logingate/host"
)

func testLogger() log15.Logger {
	l := log15.New()
	l.SetHandler(log15.DiscardHandler())
	return l
}

func idBytes(v uint32) []byte {
	b := make([]byte, 4)
	binary.NativeEndian.PutUint32(b, v)
	return b
}

func TestResolveAdministrativeShortCircuits(t *testing.T) {
	consulted := false
	r := &Resolver{
		Get: func(name string) ([]byte, error) {
			consulted = true
			return idBytes(501), nil
		},
		Log: testLogger(),
	}

	uid, gid, err := r.Resolve(true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if uid != 0 || gid != 0 {
		t.Fatalf("got (%d, %d), want (0, 0)", uid, gid)
	}
	if consulted {
		t.Fatal("administrative context must not consult the context store")
	}
}

func TestResolveTargetUser(t *testing.T) {
	values := map[string][]byte{
		host.AttrUID: idBytes(501),
		host.AttrGID: idBytes(20),
	}
	r := &Resolver{
		Get: func(name string) ([]byte, error) {
			v, ok := values[name]
			if !ok {
				return nil, host.ErrNoValue
			}
			return v, nil
		},
		Log: testLogger(),
	}

	uid, gid, err := r.Resolve(false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if uid != 501 || gid != 20 {
		t.Fatalf("got (%d, %d), want (501, 20)", uid, gid)
	}
}

func TestResolveMissingAttribute(t *testing.T) {
	for _, missing := range []string{host.AttrUID, host.AttrGID} {
		r := &Resolver{
			Get: func(name string) ([]byte, error) {
				if name == missing {
					return nil, host.ErrNoValue
				}
				return idBytes(501), nil
			},
			Log: testLogger(),
		}
		if _, _, err := r.Resolve(false); err == nil {
			t.Fatalf("expected failure with %q missing", missing)
		}
	}
}

func TestResolveUndersizedValue(t *testing.T) {
	r := &Resolver{
		Get: func(name string) ([]byte, error) {
			return []byte{0x01, 0x02}, nil
		},
		Log: testLogger(),
	}
	if _, _, err := r.Resolve(false); err == nil {
		t.Fatal("expected failure for undersized identity value")
	}
}
