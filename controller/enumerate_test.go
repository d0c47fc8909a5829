package controller

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projecteru2/vmbridge/config"
	"github.com/projecteru2/vmbridge/executor"
	"github.com/projecteru2/vmbridge/types"
)

const qemuScan = `1234 qemu-system-x86_64 -name guest=Fedora39,debug-threads=on -m 2048
1235 qemu-system-x86_64 -name guest=web,debug-threads=on -m 4096
1236 /usr/bin/qemu-img convert -f qcow2 disk.qcow2 out.raw
`

func TestListVMsAllEndpoints(t *testing.T) {
	f := &fakeRunner{}
	f.respond = func(argv []string) (*executor.Result, error) {
		if res, handled := probeAnswer(argv, sessionURI); handled {
			return res, nil
		}
		switch {
		case argvIs(argv, "virsh", "-c", systemURI, "list", "--name"):
			return ok("web\ndb\n\n")
		case argvIs(argv, "virsh", "-c", systemURI, "list", "--inactive", "--name"):
			return ok("backup\n")
		case argvIs(argv, "virsh", "-c", sessionURI, "list", "--name"):
			// One endpoint failing must not abort the others.
			return exitWith(1, "error: failed to connect")
		case argvIs(argv, "virsh", "-c", sessionURI, "list", "--inactive", "--name"):
			return ok("scratch\n")
		case argvIs(argv, "pgrep", "-fa", "qemu"):
			return ok(qemuScan)
		}
		t.Fatalf("unexpected command: %v", argv)
		return nil, nil
	}
	c := newTestController(t, config.DefaultConfig(), f)

	inv := c.ListVMs(context.Background(), true)

	// Running guests come before inactive ones within an endpoint.
	assert.Equal(t, []types.VMDescriptor{
		{Name: "web", Status: types.StatusRunning},
		{Name: "db", Status: types.StatusRunning},
		{Name: "backup", Status: types.StatusStopped},
	}, inv.Libvirt[systemURI])
	assert.Equal(t, []types.VMDescriptor{
		{Name: "scratch", Status: types.StatusStopped},
	}, inv.Libvirt[sessionURI])

	// "web" is libvirt-managed, so the direct scan drops it; the qemu-img
	// line carries no guest token and is ignored.
	assert.Equal(t, []types.VMDescriptor{
		{Name: "Fedora39", Status: types.StatusRunning},
	}, inv.QEMU)

	// Dedup invariant: nothing in QEMU appears under any endpoint.
	managed := inv.ManagedNames()
	for _, vm := range inv.QEMU {
		_, owned := managed[vm.Name]
		assert.Falsef(t, owned, "%s leaked into the direct list", vm.Name)
	}
	assert.Equal(t, 5, inv.Len())
}

func TestListVMsSingleEndpoint(t *testing.T) {
	f := &fakeRunner{}
	f.respond = func(argv []string) (*executor.Result, error) {
		if res, handled := probeAnswer(argv, systemURI); handled {
			return res, nil
		}
		switch {
		case argvIs(argv, "virsh", "-c", "qemu+ssh://lab/system", "list", "--name"):
			return ok("labvm\n")
		case argvIs(argv, "virsh", "-c", "qemu+ssh://lab/system", "list", "--inactive", "--name"):
			return ok("")
		case argvIs(argv, "pgrep", "-fa", "qemu"):
			return exitWith(1, "") // nothing running directly
		}
		t.Fatalf("unexpected command: %v", argv)
		return nil, nil
	}
	conf := config.DefaultConfig()
	conf.LibvirtURI = "qemu+ssh://lab/system"
	c := newTestController(t, conf, f)

	inv := c.ListVMs(context.Background(), false)

	require.Len(t, inv.Libvirt, 1)
	assert.Equal(t, []types.VMDescriptor{
		{Name: "labvm", Status: types.StatusRunning},
	}, inv.Libvirt["qemu+ssh://lab/system"])
	assert.Empty(t, inv.QEMU)
}

func TestListVMsWithoutVirsh(t *testing.T) {
	f := &fakeRunner{}
	f.respond = func(argv []string) (*executor.Result, error) {
		if res, handled := probeAnswer(argv, ""); handled {
			return res, nil
		}
		if argvIs(argv, "pgrep", "-fa", "qemu") {
			return ok("99 qemu-system-aarch64 -name guest=pi,debug-threads=on\n")
		}
		t.Fatalf("unexpected command: %v", argv)
		return nil, nil
	}
	c := newTestController(t, config.DefaultConfig(), f)

	inv := c.ListVMs(context.Background(), true)
	assert.Empty(t, inv.Libvirt)
	assert.Equal(t, []types.VMDescriptor{{Name: "pi", Status: types.StatusRunning}}, inv.QEMU)
}

func TestListVMsScanFailure(t *testing.T) {
	f := &fakeRunner{}
	f.respond = func(argv []string) (*executor.Result, error) {
		if res, handled := probeAnswer(argv, ""); handled {
			return res, nil
		}
		return nil, assert.AnError
	}
	c := newTestController(t, config.DefaultConfig(), f)

	// A failed process scan degrades to an empty direct list.
	inv := c.ListVMs(context.Background(), true)
	assert.Empty(t, inv.QEMU)
}
