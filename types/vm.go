package types

// VMStatus is the controller's view of a guest's lifecycle state.
// Every backend query is classified into one of these three values.
type VMStatus string

const (
	StatusRunning VMStatus = "Running"
	StatusStopped VMStatus = "Stopped"
	// StatusUnknown means the backend could not confirm either state:
	// command failure, ambiguous output, or backend/endpoint mismatch.
	StatusUnknown VMStatus = "Unknown"
)

// Backend identifies which subsystem owns a VM.
type Backend string

const (
	BackendNone    Backend = ""
	BackendQEMU    Backend = "qemu"    // directly spawned hypervisor process
	BackendLibvirt Backend = "libvirt" // domain managed through virsh
)

// EndpointQEMU is the sentinel endpoint selecting the direct-process backend.
// Any other non-empty endpoint is treated as a libvirt connection URI.
const EndpointQEMU = "qemu"

// Target is an endpoint resolved into its backend variant. Resolving once per
// call keeps the string comparison against the sentinel in a single place.
type Target struct {
	Backend Backend
	URI     string // set only for BackendLibvirt
}

// ResolveEndpoint classifies an endpoint token.
func ResolveEndpoint(endpoint string) Target {
	switch endpoint {
	case EndpointQEMU:
		return Target{Backend: BackendQEMU}
	case "":
		return Target{}
	default:
		return Target{Backend: BackendLibvirt, URI: endpoint}
	}
}

// VMDescriptor is one enumerated guest. Descriptors are produced fresh by
// every enumeration and never retained by the controller.
type VMDescriptor struct {
	Name   string   `json:"name"`
	Status VMStatus `json:"status"`
}

// StatusResult is the outcome of a single status query.
// Invariant: URI is non-empty if and only if Backend == BackendLibvirt.
type StatusResult struct {
	Status  VMStatus `json:"status"`
	Backend Backend  `json:"backend,omitempty"`
	URI     string   `json:"uri,omitempty"`
}

// Inventory is one live enumeration across both backends.
// Invariant: no name under any Libvirt[uri] also appears in QEMU; libvirt
// launches its guests as qemu processes the direct scan would otherwise match.
type Inventory struct {
	QEMU    []VMDescriptor            `json:"qemu"`
	Libvirt map[string][]VMDescriptor `json:"libvirt"`
}

// ManagedNames returns the set of guest names owned by any libvirt connection.
// The direct-process scan is filtered against this set.
func (inv *Inventory) ManagedNames() map[string]struct{} {
	names := make(map[string]struct{})
	for _, vms := range inv.Libvirt {
		for _, vm := range vms {
			names[vm.Name] = struct{}{}
		}
	}
	return names
}

// Len returns the total number of enumerated guests across both backends.
func (inv *Inventory) Len() int {
	n := len(inv.QEMU)
	for _, vms := range inv.Libvirt {
		n += len(vms)
	}
	return n
}
