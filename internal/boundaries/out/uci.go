package out

import "context"

// UCI config names the reconciler operates on.
const (
	UCINetwork  = "network"
	UCIFirewall = "firewall"
)

// UCIValue holds a UCI option value. UCI persists options either as a
// scalar or as a list; UCIValue normalizes both shapes at the boundary
// so the ambiguity never leaks into core logic.
type UCIValue []string

// String returns the scalar form: the first element, or "" when unset.
func (v UCIValue) String() string {
	if len(v) == 0 {
		return ""
	}
	return v[0]
}

// List returns the list form. A scalar becomes a one-element list and
// an unset value an empty one.
func (v UCIValue) List() []string {
	if v == nil {
		return []string{}
	}
	return v
}

// IsSet reports whether the option carries any value.
func (v UCIValue) IsSet() bool {
	return len(v) > 0
}

// Contains reports whether s is one of the value's elements.
func (v UCIValue) Contains(s string) bool {
	for _, item := range v {
		if item == s {
			return true
		}
	}
	return false
}

// UCISection is one sectioned key/value block of a UCI config.
type UCISection struct {
	Name    string
	Type    string
	Options map[string]UCIValue
}

// UCIStore defines the contract for OpenWrt's persisted configuration.
// A load must complete before reads or mutations of that config, and
// mutations must be saved then applied to take effect. The store gives
// no cross-call transaction isolation.
type UCIStore interface {
	Load(ctx context.Context, config string) error
	Sections(ctx context.Context, config, sectionType string) ([]UCISection, error)
	Section(ctx context.Context, config, name string) (*UCISection, error)
	Get(ctx context.Context, config, section, option string) (UCIValue, error)
	Set(ctx context.Context, config, section, option string, value UCIValue) error
	// CreateSection makes a new section. With name it creates a named
	// section; with an empty name an anonymous one, returning the
	// generated section id.
	CreateSection(ctx context.Context, config, sectionType, name string) (string, error)
	DeleteSection(ctx context.Context, config, section string) error
	Save(ctx context.Context, config string) error
	// Apply activates saved changes. Appliers that support rollback
	// get the confirmation window in seconds.
	Apply(ctx context.Context, config string, rollbackTimeout int) error
	// FlushCache drops any cached view of the configs so later loads
	// observe fresh state.
	FlushCache(ctx context.Context) error
}
