package controller

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/projecteru2/vmbridge/config"
	"github.com/projecteru2/vmbridge/executor"
	"github.com/projecteru2/vmbridge/types"
)

// assertURIInvariant checks that the URI is set exactly when the backend is
// libvirt, for every status result a test produces.
func assertURIInvariant(t *testing.T, res types.StatusResult) {
	t.Helper()
	if res.Backend == types.BackendLibvirt {
		assert.NotEmpty(t, res.URI)
	} else {
		assert.Empty(t, res.URI)
	}
}

func TestGetStatusQEMURunning(t *testing.T) {
	f := &fakeRunner{}
	f.respond = func(argv []string) (*executor.Result, error) {
		if res, handled := probeAnswer(argv, ""); handled {
			return res, nil
		}
		if argvIs(argv, "pgrep", "-f", "qemu.*Fedora39") {
			return ok("4242\n")
		}
		t.Fatalf("unexpected command: %v", argv)
		return nil, nil
	}
	c := newTestController(t, config.DefaultConfig(), f)

	res := c.GetStatus(context.Background(), "Fedora39", types.EndpointQEMU)
	assert.Equal(t, types.StatusRunning, res.Status)
	assert.Equal(t, types.BackendQEMU, res.Backend)
	assertURIInvariant(t, res)
}

func TestGetStatusQEMUNoProcess(t *testing.T) {
	f := &fakeRunner{}
	f.respond = func(argv []string) (*executor.Result, error) {
		if res, handled := probeAnswer(argv, ""); handled {
			return res, nil
		}
		return exitWith(1, "")
	}
	c := newTestController(t, config.DefaultConfig(), f)

	// No matching process means Stopped, not an error.
	res := c.GetStatus(context.Background(), "X", types.EndpointQEMU)
	assert.Equal(t, types.StatusStopped, res.Status)
	assert.Equal(t, types.BackendQEMU, res.Backend)
	assertURIInvariant(t, res)
}

func TestGetStatusQEMUSpawnFailure(t *testing.T) {
	f := &fakeRunner{}
	f.respond = func(argv []string) (*executor.Result, error) {
		if res, handled := probeAnswer(argv, ""); handled {
			return res, nil
		}
		return nil, assert.AnError
	}
	c := newTestController(t, config.DefaultConfig(), f)

	res := c.GetStatus(context.Background(), "X", types.EndpointQEMU)
	assert.Equal(t, types.StatusUnknown, res.Status)
	assert.Equal(t, types.BackendQEMU, res.Backend)
	assertURIInvariant(t, res)
}

func TestGetStatusLibvirtStateMapping(t *testing.T) {
	cases := map[string]types.VMStatus{
		"running":   types.StatusRunning,
		"shut off":  types.StatusStopped,
		"inactive":  types.StatusStopped,
		"paused":    types.StatusStopped,
		"suspended": types.StatusStopped,
		"crashed":   types.StatusUnknown,
		"":          types.StatusUnknown,
	}
	for state, want := range cases {
		f := &fakeRunner{}
		f.respond = func(argv []string) (*executor.Result, error) {
			if res, handled := probeAnswer(argv, systemURI); handled {
				return res, nil
			}
			if argvIs(argv, "virsh", "-c", systemURI, "domstate", "web") {
				return ok(state + "\n")
			}
			t.Fatalf("unexpected command: %v", argv)
			return nil, nil
		}
		c := newTestController(t, config.DefaultConfig(), f)

		res := c.GetStatus(context.Background(), "web", systemURI)
		assert.Equalf(t, want, res.Status, "state %q", state)
		assert.Equal(t, types.BackendLibvirt, res.Backend)
		assert.Equal(t, systemURI, res.URI)
		assertURIInvariant(t, res)
	}
}

func TestGetStatusLibvirtCommandFailed(t *testing.T) {
	f := &fakeRunner{}
	f.respond = func(argv []string) (*executor.Result, error) {
		if res, handled := probeAnswer(argv, systemURI); handled {
			return res, nil
		}
		return exitWith(1, "error: failed to get domain 'web'")
	}
	c := newTestController(t, config.DefaultConfig(), f)

	// Backend and URI are still reported even when the state is unknowable.
	res := c.GetStatus(context.Background(), "web", systemURI)
	assert.Equal(t, types.StatusUnknown, res.Status)
	assert.Equal(t, types.BackendLibvirt, res.Backend)
	assert.Equal(t, systemURI, res.URI)
	assertURIInvariant(t, res)
}

func TestGetStatusNoBackendApplies(t *testing.T) {
	f := &fakeRunner{}
	f.respond = func(argv []string) (*executor.Result, error) {
		res, _ := probeAnswer(argv, "")
		return res, nil
	}
	c := newTestController(t, config.DefaultConfig(), f)

	// Libvirt endpoint without virsh installed: the zero value comes back.
	res := c.GetStatus(context.Background(), "web", systemURI)
	assert.Equal(t, types.StatusResult{Status: types.StatusUnknown}, res)
	assertURIInvariant(t, res)
}

func TestDomainStatus(t *testing.T) {
	assert.Equal(t, types.StatusRunning, domainStatus("  Running\n"))
	assert.Equal(t, types.StatusStopped, domainStatus("Shut Off"))
	assert.Equal(t, types.StatusUnknown, domainStatus("in shutdown"))
}
