// Package negotiation implements the versioned host runtime negotiation:
// the schema upgrade chain, the capability registry and the legacy
// capability synthesizer for hosts that never send a runtime record.
package negotiation

import (
	"fmt"
	"sort"

	"github.com/hostlink-dev/hostlink-sdk/go/domain/entities"
)

// LatestSchemaVersion is the runtime record schema this SDK understands natively.
const LatestSchemaVersion = 4

// defaultAdaptiveCardVersion is assumed for hosts that predate host version info.
var defaultAdaptiveCardVersion = entities.AdaptiveCardVersion{Major: 1, Minor: 5}

// UpgradeStep migrates a record from FromVersion to FromVersion+1.
// Upgrade must be pure: it must not modify its argument.
type UpgradeStep struct {
	Upgrade     func(entities.RuntimeRecord) entities.RuntimeRecord
	FromVersion int
}

// Chain is an ordered list of upgrade steps ending at Latest.
type Chain struct {
	steps  []UpgradeStep
	latest int
}

// NewChain builds a chain from steps, sorted by FromVersion.
// Duplicate FromVersion values are a programming error.
func NewChain(latest int, steps ...UpgradeStep) *Chain {
	sorted := make([]UpgradeStep, len(steps))
	copy(sorted, steps)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].FromVersion < sorted[j].FromVersion
	})
	for i := 1; i < len(sorted); i++ {
		if sorted[i].FromVersion == sorted[i-1].FromVersion {
			panic(fmt.Sprintf("negotiation: duplicate upgrade step from version %d", sorted[i].FromVersion))
		}
	}
	return &Chain{steps: sorted, latest: latest}
}

// DefaultChain returns the chain for every schema version this SDK knows.
// New schema versions append exactly one step here; existing steps never change.
func DefaultChain() *Chain {
	return NewChain(LatestSchemaVersion,
		UpgradeStep{FromVersion: 1, Upgrade: upgradeV1ToV2},
		UpgradeStep{FromVersion: 2, Upgrade: upgradeV2ToV3},
		UpgradeStep{FromVersion: 3, Upgrade: upgradeV3ToV4},
	)
}

// Latest returns the schema version the chain ends at.
func (c *Chain) Latest() int {
	return c.latest
}

// Oldest returns the oldest schema version the chain can upgrade from.
func (c *Chain) Oldest() int {
	if len(c.steps) == 0 {
		return c.latest
	}
	return c.steps[0].FromVersion
}

// Supports reports whether a record at version v can be fast-forwarded.
func (c *Chain) Supports(v int) bool {
	return v >= c.Oldest() && v <= c.latest
}

// FastForward applies matching steps until the record reaches the latest
// version. Each pass applies at most one step. A record already at the
// latest version is returned unchanged.
//
// FastForward panics when a version inside the supported range has no
// step: that is a broken chain, not a runtime condition.
func (c *Chain) FastForward(r entities.RuntimeRecord) entities.RuntimeRecord {
	for r.SchemaVersion != c.latest {
		applied := false
		for _, step := range c.steps {
			if step.FromVersion == r.SchemaVersion {
				next := step.Upgrade(r)
				if next.SchemaVersion != step.FromVersion+1 {
					panic(fmt.Sprintf("negotiation: upgrade step from %d produced version %d", step.FromVersion, next.SchemaVersion))
				}
				r = next
				applied = true
				break
			}
		}
		if !applied {
			panic(fmt.Sprintf("negotiation: no upgrade step from schema version %d towards %d", r.SchemaVersion, c.latest))
		}
	}
	return r
}

// upgradeV1ToV2 relocates dialog.bot to dialog.url.bot. Every v1 dialog was
// a url dialog, so a present dialog implies dialog.url. dialog.card is left
// absent: v1 hosts never reported it, which means unknown.
func upgradeV1ToV2(prev entities.RuntimeRecord) entities.RuntimeRecord {
	next := prev.Clone()
	next.SchemaVersion = 2
	dialog, ok := next.Supports["dialog"]
	if !ok {
		return next
	}
	url := entities.Capabilities{}
	if bot, ok := dialog["bot"]; ok {
		url["bot"] = bot
		delete(dialog, "bot")
	}
	if existing, ok := dialog["url"]; ok {
		for k, v := range existing {
			url[k] = v
		}
	}
	dialog["url"] = url
	return next
}

// upgradeV2ToV3 introduces host version info.
func upgradeV2ToV3(prev entities.RuntimeRecord) entities.RuntimeRecord {
	next := prev.Clone()
	next.SchemaVersion = 3
	defaultHostVersionInfo(&next.Host)
	return next
}

// upgradeV3ToV4 introduces the preferred auth channel flag. v3 hosts were
// allowed to omit host version info, so its default is applied here too.
func upgradeV3ToV4(prev entities.RuntimeRecord) entities.RuntimeRecord {
	next := prev.Clone()
	next.SchemaVersion = 4
	defaultHostVersionInfo(&next.Host)
	if next.Host.PreferredAuthChannel == nil {
		preferred := false
		next.Host.PreferredAuthChannel = &preferred
	}
	return next
}

func defaultHostVersionInfo(h *entities.HostMetadata) {
	if h.HostVersionInfo == nil {
		h.HostVersionInfo = &entities.HostVersionInfo{}
	}
	if h.HostVersionInfo.AdaptiveCardSchemaVersion == nil {
		v := defaultAdaptiveCardVersion
		h.HostVersionInfo.AdaptiveCardSchemaVersion = &v
	}
}
