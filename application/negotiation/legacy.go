package negotiation

import (
	"fmt"
	"slices"
	"sort"

	"github.com/hostlink-dev/hostlink-sdk/go/domain/entities"
)

// CapabilityRequirement grants Capability to the listed host classes.
type CapabilityRequirement struct {
	Capability  entities.Capabilities
	HostClasses []entities.HostClass
}

// VersionGatedMap maps a minimum host SDK version to the capabilities that
// version added.
type VersionGatedMap map[string][]CapabilityRequirement

// sortedVersions returns the map keys in ascending version order.
func (m VersionGatedMap) sortedVersions() ([]string, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		if _, err := parseVersion(k); err != nil {
			return nil, fmt.Errorf("version gated map: %w", err)
		}
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		c, _ := CompareVersions(keys[i], keys[j])
		if c == 0 {
			return keys[i] < keys[j]
		}
		return c < 0
	})
	return keys, nil
}

// MergeCapabilities returns a copy of baseline extended with every path of
// extra. Keys present in both are recursed into; nothing in baseline is
// removed or replaced.
func MergeCapabilities(baseline, extra entities.Capabilities) entities.Capabilities {
	out := baseline.Clone()
	mergeInto(out, extra)
	return out
}

func mergeInto(dst, src entities.Capabilities) {
	for k, v := range src {
		existing, ok := dst[k]
		if !ok || existing == nil {
			dst[k] = v.Clone()
			continue
		}
		mergeInto(existing, v)
	}
}

// Synthesize builds a runtime record for a host that never sent one.
// The baseline is fast-forwarded to the latest schema, then every map entry
// at or below highestSupportedVersion that lists hostClass is merged in,
// in ascending version order. The result is marked as a legacy host.
func Synthesize(highestSupportedVersion string, baseline entities.RuntimeRecord, m VersionGatedMap, hostClass entities.HostClass) (entities.RuntimeRecord, error) {
	return synthesize(DefaultChain(), highestSupportedVersion, baseline, m, hostClass)
}

func synthesize(chain *Chain, highestSupportedVersion string, baseline entities.RuntimeRecord, m VersionGatedMap, hostClass entities.HostClass) (entities.RuntimeRecord, error) {
	if _, err := parseVersion(highestSupportedVersion); err != nil {
		return entities.RuntimeRecord{}, fmt.Errorf("failed to synthesize runtime: %w", err)
	}
	if !chain.Supports(baseline.SchemaVersion) {
		return entities.RuntimeRecord{}, fmt.Errorf("failed to synthesize runtime: baseline schema version %d is not upgradable", baseline.SchemaVersion)
	}
	versions, err := m.sortedVersions()
	if err != nil {
		return entities.RuntimeRecord{}, fmt.Errorf("failed to synthesize runtime: %w", err)
	}

	record := chain.FastForward(baseline.Clone())
	for _, v := range versions {
		if !IsVersionAtLeast(highestSupportedVersion, v) {
			break
		}
		for _, req := range m[v] {
			if slices.Contains(req.HostClasses, hostClass) {
				record.Supports = MergeCapabilities(record.Supports, req.Capability)
			}
		}
	}
	record.Host.IsLegacyHost = true
	return record, nil
}
