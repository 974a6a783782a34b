package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/maruel/subcommands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostlink-dev/hostlink-sdk/go/application/negotiation"
	"github.com/hostlink-dev/hostlink-sdk/go/domain/entities"
)

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := subcommands.Run(newApplication(&out, &errOut), args)
	return code, out.String(), errOut.String()
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func decodeRecord(t *testing.T, out string) entities.RuntimeRecord {
	t.Helper()
	record, err := negotiation.DecodeRuntime([]byte(out))
	require.NoError(t, err)
	return record
}

func TestUpgrade(t *testing.T) {
	path := writeFile(t, "runtime.json", `{"apiVersion":1,"supports":{"dialog":{"bot":{}}}}`)

	code, out, stderr := run(t, "upgrade", path)
	require.Equal(t, exitOK, code, stderr)

	record := decodeRecord(t, out)
	assert.Equal(t, negotiation.LatestSchemaVersion, record.SchemaVersion)
	assert.True(t, record.Supports.Has("dialog", "url", "bot"))
	assert.False(t, record.Supports.Has("dialog", "bot"))
	require.NotNil(t, record.Host.PreferredAuthChannel)
}

func TestUpgrade_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"missing file", []string{"upgrade", filepath.Join(t.TempDir(), "none.json")}, exitFailure},
		{"unsupported version", []string{"upgrade", writeFile(t, "v9.json", `{"apiVersion":9,"supports":{}}`)}, exitFailure},
		{"too many args", []string{"upgrade", "a", "b"}, exitUsage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := run(t, tt.args...)
			assert.Equal(t, tt.code, code)
			assert.Contains(t, stderr, "hostlinkctl:")
		})
	}
}

func TestSynthesize_Flags(t *testing.T) {
	code, out, stderr := run(t, "synthesize", "-host-class", "desktop", "-version", "2.0.1")
	require.Equal(t, exitOK, code, stderr)

	record := decodeRecord(t, out)
	assert.True(t, record.Host.IsLegacyHost)
	assert.True(t, record.Supports.Has("teams", "fullTrust", "joinedTeams"))

	code, out, _ = run(t, "synthesize", "-host-class", "desktop", "-version", "1.5.0")
	require.Equal(t, exitOK, code)
	assert.False(t, decodeRecord(t, out).Supports.Has("teams", "fullTrust", "joinedTeams"))
}

func TestSynthesize_Profile(t *testing.T) {
	profile := writeFile(t, "host.toml", `
host_class = "web"
client_sdk_version = "2.1.0"
baseline = ["calendar"]

[[gate]]
version = "2.1.0"
host_classes = ["web"]
capabilities = ["calendar.open"]

[[gate]]
version = "2.2.0"
capabilities = ["calendar.compose"]
`)

	code, out, stderr := run(t, "synthesize", "-profile", profile)
	require.Equal(t, exitOK, code, stderr)

	record := decodeRecord(t, out)
	assert.True(t, record.Supports.Has("calendar", "open"))
	assert.False(t, record.Supports.Has("calendar", "compose"))
	assert.True(t, record.Supports.Has("chat"), "baseline is kept")
	assert.True(t, record.Supports.Has("location"), "default gates are kept")

	code, out, _ = run(t, "synthesize", "-profile", profile, "-version", "2.2.0")
	require.Equal(t, exitOK, code)
	assert.True(t, decodeRecord(t, out).Supports.Has("calendar", "compose"))
}

func TestLoadProfile(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		p, err := loadProfile(writeFile(t, "empty.toml", ""))
		require.NoError(t, err)
		assert.Equal(t, defaultProfile().ClientSDKVersion, p.ClientSDKVersion)
		assert.Equal(t, entities.HostClassDesktop, p.HostClass)
	})

	t.Run("replace gates", func(t *testing.T) {
		p, err := loadProfile(writeFile(t, "replace.toml", `
replace_gates = true

[[gate]]
version = "3.0.0"
capabilities = ["x"]
`))
		require.NoError(t, err)
		require.Len(t, p.Gates, 1)
		assert.Equal(t, negotiation.V1HostClasses, p.Gates["3.0.0"][0].HostClasses)
	})

	errCases := map[string]string{
		"unknown key":    `colour = "blue"`,
		"bad version":    `client_sdk_version = "two"`,
		"bad gate":       "[[gate]]\nversion = \"x\"\ncapabilities = [\"a\"]",
		"empty gate":     "[[gate]]\nversion = \"1.0.0\"",
		"malformed toml": `host_class = `,
	}
	for name, content := range errCases {
		t.Run(name, func(t *testing.T) {
			_, err := loadProfile(writeFile(t, "bad.toml", content))
			assert.Error(t, err)
		})
	}
}

func TestSchema(t *testing.T) {
	code, out, stderr := run(t, "schema", "request")
	require.Equal(t, exitOK, code, stderr)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Contains(t, decoded, "properties")

	code, _, stderr = run(t, "schema", "nope")
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "unknown document")

	code, _, _ = run(t, "schema")
	assert.Equal(t, exitUsage, code)
}

func TestValidate(t *testing.T) {
	good := writeFile(t, "good.json", `{"id":1,"args":[]}`)
	code, out, stderr := run(t, "validate", "frame", good)
	require.Equal(t, exitOK, code, stderr)
	assert.Equal(t, "frame: ok\n", out)

	bad := writeFile(t, "bad.json", `{"id":"1","error":{"message":"x"}}`)
	code, out, stderr = run(t, "validate", "frame", bad)
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, out, "- ")
	assert.Contains(t, stderr, "problem(s)")
}
