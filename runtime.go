package sdk

import (
	"encoding/json"
	"strings"

	"github.com/hostlink-dev/hostlink-sdk/go/application/negotiation"
	"github.com/hostlink-dev/hostlink-sdk/go/domain/entities"
	"github.com/hostlink-dev/hostlink-sdk/go/wireformat"
)

// Runtime sources reported in logs.
const (
	runtimeFromHost        = "host"
	runtimeFromFlippedHost = "host_flipped"
	runtimeSynthesized     = "legacy"
)

// installRuntime installs the runtime a handshake reply describes and
// returns the client SDK version the host supports.
//
// Hosts fill the two trailing reply slots in three ways: a runtime record
// followed by a version, the same two flipped, or a version in the runtime
// slot with nothing after it. A slot holding neither a version nor JSON is
// ignored. When no slot holds a runtime record the legacy runtime is
// synthesized from the client version.
func installRuntime(reg *negotiation.Registry, cfg config, reply wireformat.InitializeReply) (*negotiation.Snapshot, string, string, error) {
	runtimeSlot := strings.TrimSpace(reply.RuntimeConfig)
	versionSlot := strings.TrimSpace(reply.ClientSupportedSDKVersion)

	clientVersion := negotiation.DefaultSDKVersion
	if negotiation.IsValidVersion(versionSlot) {
		clientVersion = versionSlot
	}

	if isRuntimeDocument(runtimeSlot) {
		snap, err := reg.InstallJSON([]byte(runtimeSlot))
		return snap, clientVersion, runtimeFromHost, err
	}

	if negotiation.IsValidVersion(runtimeSlot) {
		clientVersion = runtimeSlot
	}
	if isRuntimeDocument(versionSlot) {
		snap, err := reg.InstallJSON([]byte(versionSlot))
		return snap, clientVersion, runtimeFromFlippedHost, err
	}

	record, err := negotiation.Synthesize(clientVersion, cfg.Baseline(), cfg.VersionGates, reply.HostClass)
	if err != nil {
		return nil, clientVersion, runtimeSynthesized, err
	}
	snap, err := reg.Install(record)
	return snap, clientVersion, runtimeSynthesized, err
}

func isRuntimeDocument(s string) bool {
	return s != "" && !negotiation.IsValidVersion(s) && json.Valid([]byte(s))
}

// decodeInitializeReply reads the handshake reply slots
// [frameContext, hostClass, runtimeConfig, clientSupportedSDKVersion].
// Missing trailing slots stay empty.
func decodeInitializeReply(args []json.RawMessage) (wireformat.InitializeReply, error) {
	var (
		reply        wireformat.InitializeReply
		frameContext string
		hostClass    string
	)
	slots := []*string{&frameContext, &hostClass, &reply.RuntimeConfig, &reply.ClientSupportedSDKVersion}
	for i, dst := range slots {
		if i >= len(args) {
			break
		}
		if err := decodeSlot(args[i], dst); err != nil {
			return reply, err
		}
	}
	reply.FrameContext = entities.FrameContext(frameContext)
	reply.HostClass = entities.HostClass(hostClass)
	if err := validate.Struct(reply); err != nil {
		return reply, err
	}
	return reply, nil
}

// decodeSlot decodes a string slot. Some hosts send the runtime record as a
// JSON object rather than an encoded string; it is kept as its JSON text.
func decodeSlot(raw json.RawMessage, dst *string) error {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil
	}
	if strings.HasPrefix(trimmed, "{") {
		*dst = trimmed
		return nil
	}
	return json.Unmarshal(raw, dst)
}
