package negotiation

import "github.com/hostlink-dev/hostlink-sdk/go/domain/entities"

// DefaultSDKVersion is assumed for legacy hosts that report no client SDK version.
const DefaultSDKVersion = "2.0.1"

// V1HostClasses are the host classes that existed before runtime records.
var V1HostClasses = []entities.HostClass{
	entities.HostClassDesktop,
	entities.HostClassWeb,
	entities.HostClassAndroid,
	entities.HostClassIOS,
	entities.HostClassRigel,
	entities.HostClassSurfaceHub,
	entities.HostClassRoomsWindows,
	entities.HostClassRoomsAndroid,
	entities.HostClassPhones,
	entities.HostClassDisplays,
}

// LegacyHostBaseline returns the capabilities every legacy host has,
// expressed at the latest schema version.
func LegacyHostBaseline() entities.RuntimeRecord {
	preferred := false
	return entities.RuntimeRecord{
		SchemaVersion: LatestSchemaVersion,
		Host: entities.HostMetadata{
			HostVersionInfo: &entities.HostVersionInfo{
				AdaptiveCardSchemaVersion: &entities.AdaptiveCardVersion{Major: 1, Minor: 5},
			},
			PreferredAuthChannel: &preferred,
			IsLegacyHost:         true,
		},
		Supports: entities.CapabilitiesFromPaths(
			"appInstallDialog",
			"appEntity",
			"call",
			"chat",
			"conversations",
			"dialog.url.bot",
			"dialog.update",
			"logs",
			"meetingRoom",
			"menus",
			"monetization",
			"notifications",
			"pages.appButton",
			"pages.tabs",
			"pages.config",
			"pages.backStack",
			"pages.fullTrust",
			"remoteCamera",
			"sharing",
			"stageView",
			"teams.fullTrust",
			"teamsCore",
			"video",
		),
	}
}

// DefaultVersionGatedMap returns the capabilities legacy hosts gained by
// SDK version.
func DefaultVersionGatedMap() VersionGatedMap {
	return VersionGatedMap{
		"1.9.0": {
			{Capability: entities.CapabilitiesFromPaths("location"), HostClasses: V1HostClasses},
		},
		"2.0.0": {
			{Capability: entities.CapabilitiesFromPaths("people"), HostClasses: V1HostClasses},
		},
		"2.0.1": {
			{
				Capability: entities.CapabilitiesFromPaths("teams.fullTrust.joinedTeams"),
				HostClasses: []entities.HostClass{
					entities.HostClassAndroid,
					entities.HostClassDesktop,
					entities.HostClassIOS,
					entities.HostClassRoomsAndroid,
					entities.HostClassPhones,
					entities.HostClassDisplays,
					entities.HostClassWeb,
				},
			},
			{
				Capability:  entities.CapabilitiesFromPaths("webStorage"),
				HostClasses: []entities.HostClass{entities.HostClassDesktop},
			},
		},
		"2.0.5": {
			{
				Capability: entities.CapabilitiesFromPaths("webStorage"),
				HostClasses: []entities.HostClass{
					entities.HostClassAndroid,
					entities.HostClassDesktop,
					entities.HostClassIOS,
				},
			},
		},
	}
}
