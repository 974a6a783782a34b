package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/hostlink-dev/hostlink-sdk/go/application/negotiation"
	"github.com/hostlink-dev/hostlink-sdk/go/domain/entities"
)

// hostProfile describes a legacy host for synthesis.
type hostProfile struct {
	HostClass        entities.HostClass
	ClientSDKVersion string
	Baseline         entities.RuntimeRecord
	Gates            negotiation.VersionGatedMap
}

type fileProfile struct {
	HostClass        string     `toml:"host_class"`
	ClientSDKVersion string     `toml:"client_sdk_version"`
	Baseline         []string   `toml:"baseline"`
	ReplaceGates     bool       `toml:"replace_gates"`
	Gates            []fileGate `toml:"gate"`
}

type fileGate struct {
	Version      string   `toml:"version"`
	HostClasses  []string `toml:"host_classes"`
	Capabilities []string `toml:"capabilities"`
}

func defaultProfile() hostProfile {
	return hostProfile{
		HostClass:        entities.HostClassDesktop,
		ClientSDKVersion: negotiation.DefaultSDKVersion,
		Baseline:         negotiation.LegacyHostBaseline(),
		Gates:            negotiation.DefaultVersionGatedMap(),
	}
}

// loadProfile reads a TOML host profile. Keys left out keep their defaults;
// baseline paths are added to the legacy baseline and gates to the default
// gate map unless replace_gates is set.
func loadProfile(path string) (hostProfile, error) {
	p := defaultProfile()

	var raw fileProfile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return hostProfile{}, fmt.Errorf("load host profile: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return hostProfile{}, fmt.Errorf("load host profile: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("host_class") {
		p.HostClass = entities.HostClass(strings.TrimSpace(raw.HostClass))
	}

	if meta.IsDefined("client_sdk_version") {
		v := strings.TrimSpace(raw.ClientSDKVersion)
		if !negotiation.IsValidVersion(v) {
			return hostProfile{}, fmt.Errorf("parse client_sdk_version: %q is not a version", raw.ClientSDKVersion)
		}
		p.ClientSDKVersion = v
	}

	if meta.IsDefined("baseline") {
		p.Baseline.Supports = negotiation.MergeCapabilities(p.Baseline.Supports, pathTree(raw.Baseline))
	}

	if raw.ReplaceGates {
		p.Gates = negotiation.VersionGatedMap{}
	}
	for i, g := range raw.Gates {
		v := strings.TrimSpace(g.Version)
		if !negotiation.IsValidVersion(v) {
			return hostProfile{}, fmt.Errorf("parse gate %d: %q is not a version", i, g.Version)
		}
		if len(g.Capabilities) == 0 {
			return hostProfile{}, fmt.Errorf("parse gate %d: no capabilities", i)
		}
		p.Gates[v] = append(p.Gates[v], negotiation.CapabilityRequirement{
			Capability:  pathTree(g.Capabilities),
			HostClasses: hostClasses(g.HostClasses),
		})
	}
	return p, nil
}

func pathTree(paths []string) entities.Capabilities {
	cleaned := make([]string, 0, len(paths))
	for _, p := range paths {
		if p = strings.TrimSpace(p); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	return entities.CapabilitiesFromPaths(cleaned...)
}

// hostClasses converts names; an empty list means every v1 host class.
func hostClasses(in []string) []entities.HostClass {
	if len(in) == 0 {
		return append([]entities.HostClass(nil), negotiation.V1HostClasses...)
	}
	out := make([]entities.HostClass, 0, len(in))
	for _, hc := range in {
		out = append(out, entities.HostClass(strings.TrimSpace(hc)))
	}
	return out
}
