// Package apitag builds the API version tags stamped on outgoing requests.
// Tags identify which generation of a capability area issued a call. They
// are carried for telemetry only and never affect routing.
package apitag

import "fmt"

// Version is a capability area version.
type Version string

const (
	V1 Version = "v1"
	V2 Version = "v2"
	V3 Version = "v3"
)

// Tag joins version and apiName, e.g. Tag("app.initialize", V2) is
// "v2_app.initialize".
func Tag(apiName string, version Version) string {
	return fmt.Sprintf("%s_%s", version, apiName)
}

// Area tags the calls of one capability area.
type Area struct {
	Version Version
	Name    string
}

// NewArea returns an Area for name at version.
func NewArea(name string, version Version) Area {
	return Area{Name: name, Version: version}
}

// Tag returns the tag for op within the area, e.g. "v2_pages.navigateTo".
func (a Area) Tag(op string) string {
	if a.Name == "" {
		return Tag(op, a.Version)
	}
	return Tag(a.Name+"."+op, a.Version)
}
