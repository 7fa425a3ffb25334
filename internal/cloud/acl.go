package cloud

// ACL is the access-control level the server grants on a device.
// Levels are ordered owner > basic > read.
type ACL string

// ACL values as returned on the device summary.
const (
	ACLOwner ACL = "owner"
	ACLBasic ACL = "device:basic"
	ACLRead  ACL = "device:read"
)

// Capability identifies an ACL-gated sub-resource operation.
type Capability int

const (
	// CapInfo permits fetching the device info sub-resource
	// (mac, serial, firmware, wifi status). Owner only.
	CapInfo Capability = iota

	// CapSettings permits fetching and mutating device settings.
	// Granted to everything above read-only.
	CapSettings
)

// capabilities maps each ACL level to its capability set.
// Gating lives here rather than in scattered comparisons so the
// policy stays centrally testable.
var capabilities = map[ACL]map[Capability]struct{}{
	ACLOwner: {
		CapInfo:     {},
		CapSettings: {},
	},
	ACLBasic: {
		CapSettings: {},
	},
	ACLRead: {},
}

// Can reports whether the ACL grants the capability.
// Unknown ACL values grant nothing.
func (a ACL) Can(c Capability) bool {
	caps, ok := capabilities[a]
	if !ok {
		return false
	}
	_, ok = caps[c]
	return ok
}
