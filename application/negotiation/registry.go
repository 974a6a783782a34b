package negotiation

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/hostlink-dev/hostlink-sdk/go/domain/entities"
	sdkerrors "github.com/hostlink-dev/hostlink-sdk/go/domain/errors"
	"github.com/hostlink-dev/hostlink-sdk/go/wireformat"
)

// Snapshot is a negotiated runtime record. It is built once from a deep copy
// and exposes only read accessors; updates replace the snapshot.
type Snapshot struct {
	supports      entities.Capabilities
	host          entities.HostMetadata
	schemaVersion int
}

func newSnapshot(r entities.RuntimeRecord) *Snapshot {
	c := r.Clone()
	return &Snapshot{
		schemaVersion: c.SchemaVersion,
		host:          c.Host,
		supports:      c.Supports,
	}
}

// SchemaVersion returns the schema version of the record.
func (s *Snapshot) SchemaVersion() int {
	return s.schemaVersion
}

// Host returns a copy of the host metadata.
func (s *Snapshot) Host() entities.HostMetadata {
	return s.host.Clone()
}

// IsLegacyHost reports whether the record was synthesized for a legacy host.
func (s *Snapshot) IsLegacyHost() bool {
	return s.host.IsLegacyHost
}

// Has reports whether path is present in the capability tree.
func (s *Snapshot) Has(path ...string) bool {
	return s.supports.Has(path...)
}

// Capabilities returns a copy of the capability tree.
func (s *Snapshot) Capabilities() entities.Capabilities {
	return s.supports.Clone()
}

// Record returns a copy of the snapshot as a plain record.
func (s *Snapshot) Record() entities.RuntimeRecord {
	return entities.RuntimeRecord{
		SchemaVersion: s.schemaVersion,
		Host:          s.host.Clone(),
		Supports:      s.supports.Clone(),
	}
}

// IsInitialized reports whether record is at the latest schema version.
// It returns NotInitializedError for the uninitialized sentinel and
// UnsupportedRuntimeError for any other version.
func IsInitialized(record entities.RuntimeRecord) (bool, error) {
	return checkSchemaVersion(record.SchemaVersion)
}

func checkSchemaVersion(schemaVersion int) (bool, error) {
	switch schemaVersion {
	case LatestSchemaVersion:
		return true, nil
	case entities.UninitializedSchemaVersion:
		return false, &sdkerrors.NotInitializedError{Component: "runtime"}
	default:
		return false, &sdkerrors.UnsupportedRuntimeError{SchemaVersion: schemaVersion, Latest: LatestSchemaVersion}
	}
}

// Registry holds the negotiated runtime of one app instance.
// Registries are explicit values; nothing in the SDK keeps a global one.
type Registry struct {
	current atomic.Pointer[Snapshot]
	chain   *Chain
	logger  *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithChain overrides the upgrade chain.
func WithChain(c *Chain) RegistryOption {
	return func(r *Registry) {
		r.chain = c
	}
}

// WithRegistryLogger sets the logger used for install diagnostics.
func WithRegistryLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = l
	}
}

// NewRegistry creates an uninitialized registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		chain:  DefaultChain(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.current.Store(newSnapshot(entities.UninitializedRuntime()))
	return r
}

// Current returns the installed snapshot. Before Install it is the
// uninitialized sentinel.
func (r *Registry) Current() *Snapshot {
	return r.current.Load()
}

// IsInitialized applies IsInitialized to the installed snapshot.
func (r *Registry) IsInitialized() (bool, error) {
	return checkSchemaVersion(r.Current().SchemaVersion())
}

// Install upgrades raw to the latest schema and publishes it atomically.
// A schema version outside the chain returns UnsupportedRuntimeError; no
// partially upgraded record is ever visible.
func (r *Registry) Install(raw entities.RuntimeRecord) (*Snapshot, error) {
	if !r.chain.Supports(raw.SchemaVersion) {
		return nil, &sdkerrors.UnsupportedRuntimeError{SchemaVersion: raw.SchemaVersion, Latest: r.chain.Latest()}
	}
	upgraded := r.chain.FastForward(raw.Clone())
	snap := newSnapshot(upgraded)
	r.current.Store(snap)
	r.logger.Debug("runtime installed",
		"from_schema", raw.SchemaVersion,
		"schema", snap.SchemaVersion(),
		"legacy_host", snap.IsLegacyHost(),
		"capabilities", len(snap.supports))
	return snap, nil
}

// InstallJSON decodes a host supplied runtime record and installs it.
func (r *Registry) InstallJSON(data []byte) (*Snapshot, error) {
	record, err := DecodeRuntime(data)
	if err != nil {
		return nil, err
	}
	return r.Install(record)
}

// Supports reports whether path is present in the negotiated tree.
// Missing paths report false; an error is returned only when no runtime
// is installed or the installed one is unusable.
func (r *Registry) Supports(path ...string) (bool, error) {
	snap := r.Current()
	if ok, err := checkSchemaVersion(snap.SchemaVersion()); !ok {
		return false, err
	}
	return snap.Has(path...), nil
}

// Teardown resets the registry to the uninitialized sentinel.
func (r *Registry) Teardown() {
	r.current.Store(newSnapshot(entities.UninitializedRuntime()))
}

// DecodeRuntime decodes the JSON wire form of a runtime record.
func DecodeRuntime(data []byte) (entities.RuntimeRecord, error) {
	var wire wireformat.RuntimeWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return entities.RuntimeRecord{}, &sdkerrors.WireFormatError{Operation: "decode", Type: "runtime", Err: err}
	}
	record, err := wire.ToRecord()
	if err != nil {
		return entities.RuntimeRecord{}, &sdkerrors.WireFormatError{Operation: "decode", Type: "runtime", Err: err}
	}
	return record, nil
}

// EncodeRuntime encodes a record in its JSON wire form.
func EncodeRuntime(r entities.RuntimeRecord) ([]byte, error) {
	data, err := json.Marshal(wireformat.RuntimeWireFromRecord(r))
	if err != nil {
		return nil, fmt.Errorf("failed to encode runtime: %w", err)
	}
	return data, nil
}
