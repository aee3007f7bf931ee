package report

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Capability is a single optional operation a vendor object may expose.
// Availability depends on the SDK version and the permission level of the embed.
type Capability uint32

const (
	CapGetPages Capability = 1 << iota
	CapSetPage
	CapAddPage
	CapDeletePage
	CapSave
	CapGetVisuals
	CapCreateVisual
	CapDeleteVisualByName
	CapMoveVisual
	CapResizeVisual
	CapChangeType
	CapGetDataFields
	CapAddDataField
	CapRemoveDataField
	CapGetProperty
	CapSetProperty
	CapDeleteVisual
	CapGetFilters
	CapSetFilters
	CapUpdateFilters
	CapRemoveFilters
)

var capabilityNames = map[Capability]string{
	CapGetPages:           "getPages",
	CapSetPage:            "setPage",
	CapAddPage:            "addPage",
	CapDeletePage:         "deletePage",
	CapSave:               "save",
	CapGetVisuals:         "getVisuals",
	CapCreateVisual:       "createVisual",
	CapDeleteVisualByName: "deleteVisual",
	CapMoveVisual:         "moveVisual",
	CapResizeVisual:       "resizeVisual",
	CapChangeType:         "changeType",
	CapGetDataFields:      "getDataFields",
	CapAddDataField:       "addDataField",
	CapRemoveDataField:    "removeDataField",
	CapGetProperty:        "getProperty",
	CapSetProperty:        "setProperty",
	CapDeleteVisual:       "delete",
	CapGetFilters:         "getFilters",
	CapSetFilters:         "setFilters",
	CapUpdateFilters:      "updateFilters",
	CapRemoveFilters:      "removeFilters",
}

var capabilitiesByName = func() map[string]Capability {
	byName := make(map[string]Capability, len(capabilityNames))
	for c, name := range capabilityNames {
		byName[name] = c
	}
	return byName
}()

// String returns the vendor method name of the capability
func (c Capability) String() string {
	if name, ok := capabilityNames[c]; ok {
		return name
	}
	return fmt.Sprintf("capability(%d)", uint32(c))
}

// ParseCapability resolves a vendor method name
func ParseCapability(name string) (Capability, error) {
	c, ok := capabilitiesByName[name]
	if !ok {
		return 0, fmt.Errorf("unknown capability %q", name)
	}
	return c, nil
}

// CapabilitySet is the set of operations a vendor object supports
type CapabilitySet uint32

// NewCapabilitySet builds a set from individual capabilities
func NewCapabilitySet(caps ...Capability) CapabilitySet {
	var set CapabilitySet
	for _, c := range caps {
		set |= CapabilitySet(c)
	}
	return set
}

// Has reports whether every given capability is in the set
func (s CapabilitySet) Has(caps ...Capability) bool {
	for _, c := range caps {
		if s&CapabilitySet(c) == 0 {
			return false
		}
	}
	return true
}

// With returns a copy of the set including caps
func (s CapabilitySet) With(caps ...Capability) CapabilitySet {
	return s | NewCapabilitySet(caps...)
}

// Without returns a copy of the set excluding caps
func (s CapabilitySet) Without(caps ...Capability) CapabilitySet {
	return s &^ NewCapabilitySet(caps...)
}

// Names lists the vendor method names in the set, sorted
func (s CapabilitySet) Names() []string {
	names := make([]string, 0, len(capabilityNames))
	for c, name := range capabilityNames {
		if s.Has(c) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func (s CapabilitySet) String() string {
	return "[" + strings.Join(s.Names(), " ") + "]"
}

// ParseCapabilitySet builds a set from vendor method names
func ParseCapabilitySet(names []string) (CapabilitySet, error) {
	var set CapabilitySet
	for _, name := range names {
		c, err := ParseCapability(name)
		if err != nil {
			return 0, err
		}
		set = set.With(c)
	}
	return set, nil
}

func (s CapabilitySet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Names())
}

func (s *CapabilitySet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	set, err := ParseCapabilitySet(names)
	if err != nil {
		return err
	}
	*s = set
	return nil
}

// Common capability sets for a fully permissioned embed
var (
	FilterCapabilities = NewCapabilitySet(CapGetFilters, CapSetFilters, CapUpdateFilters, CapRemoveFilters)

	AllReportCapabilities = NewCapabilitySet(CapGetPages, CapSetPage, CapAddPage, CapDeletePage, CapSave).
				With(CapGetFilters, CapSetFilters, CapUpdateFilters)

	AllPageCapabilities = NewCapabilitySet(CapGetVisuals, CapCreateVisual, CapDeleteVisualByName, CapMoveVisual, CapResizeVisual).
				With(CapGetFilters, CapSetFilters, CapUpdateFilters)

	AllVisualCapabilities = NewCapabilitySet(CapChangeType, CapGetDataFields, CapAddDataField, CapRemoveDataField,
		CapGetProperty, CapSetProperty, CapDeleteVisual).
		With(CapGetFilters, CapSetFilters, CapUpdateFilters, CapRemoveFilters)
)
