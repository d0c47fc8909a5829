package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveEndpoint(t *testing.T) {
	assert.Equal(t, Target{Backend: BackendQEMU}, ResolveEndpoint(EndpointQEMU))
	assert.Equal(t, Target{Backend: BackendLibvirt, URI: "qemu:///system"}, ResolveEndpoint("qemu:///system"))
	assert.Equal(t, Target{}, ResolveEndpoint(""))
}

func TestInventoryManagedNames(t *testing.T) {
	inv := &Inventory{
		QEMU: []VMDescriptor{{Name: "solo", Status: StatusRunning}},
		Libvirt: map[string][]VMDescriptor{
			"qemu:///system":  {{Name: "web", Status: StatusRunning}, {Name: "db", Status: StatusStopped}},
			"qemu:///session": {{Name: "scratch", Status: StatusStopped}},
		},
	}

	names := inv.ManagedNames()
	assert.Len(t, names, 3)
	assert.Contains(t, names, "web")
	assert.Contains(t, names, "db")
	assert.Contains(t, names, "scratch")
	assert.NotContains(t, names, "solo")

	assert.Equal(t, 4, inv.Len())
}
