package entities

// UninitializedSchemaVersion marks a runtime record that was never negotiated.
const UninitializedSchemaVersion = -1

// AdaptiveCardVersion is the adaptive card schema version a host can render.
type AdaptiveCardVersion struct {
	Major int `json:"majorVersion"`
	Minor int `json:"minorVersion"`
}

// HostVersionInfo describes versioned host components.
type HostVersionInfo struct {
	AdaptiveCardSchemaVersion *AdaptiveCardVersion `json:"adaptiveCardSchemaVersion,omitempty"`
}

// Clone returns a deep copy.
func (h *HostVersionInfo) Clone() *HostVersionInfo {
	if h == nil {
		return nil
	}
	out := &HostVersionInfo{}
	if h.AdaptiveCardSchemaVersion != nil {
		v := *h.AdaptiveCardSchemaVersion
		out.AdaptiveCardSchemaVersion = &v
	}
	return out
}

// HostMetadata is the non-capability part of a runtime record.
type HostMetadata struct {
	// HostVersionInfo is nil for schema versions that predate it.
	HostVersionInfo *HostVersionInfo

	// PreferredAuthChannel reports whether the host recommends its own
	// authentication channel. Nil for schema versions that predate it.
	PreferredAuthChannel *bool

	// IsLegacyHost is set for hosts that never send a runtime record.
	IsLegacyHost bool
}

// Clone returns a deep copy.
func (m HostMetadata) Clone() HostMetadata {
	out := HostMetadata{
		HostVersionInfo: m.HostVersionInfo.Clone(),
		IsLegacyHost:    m.IsLegacyHost,
	}
	if m.PreferredAuthChannel != nil {
		v := *m.PreferredAuthChannel
		out.PreferredAuthChannel = &v
	}
	return out
}

// RuntimeRecord is a versioned snapshot of host capabilities.
// It is a plain value used while decoding and upgrading; the negotiated,
// read-only form is published by the negotiation registry.
type RuntimeRecord struct {
	Supports      Capabilities
	Host          HostMetadata
	SchemaVersion int
}

// UninitializedRuntime returns the sentinel record.
func UninitializedRuntime() RuntimeRecord {
	return RuntimeRecord{
		SchemaVersion: UninitializedSchemaVersion,
		Supports:      Capabilities{},
	}
}

// Clone returns a deep copy of the record.
func (r RuntimeRecord) Clone() RuntimeRecord {
	return RuntimeRecord{
		SchemaVersion: r.SchemaVersion,
		Host:          r.Host.Clone(),
		Supports:      r.Supports.Clone(),
	}
}
