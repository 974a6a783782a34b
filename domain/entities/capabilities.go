package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Capabilities is a nested capability tree. Every key present at any depth
// marks a feature the host supports; leaves are empty trees.
// A missing key means unknown or unsupported and is never an error.
type Capabilities map[string]Capabilities

// Leaf returns an empty capability node.
func Leaf() Capabilities {
	return Capabilities{}
}

// CapabilitiesFromPaths builds a tree containing every dotted path.
//
//	CapabilitiesFromPaths("teams.fullTrust.joinedTeams", "location")
func CapabilitiesFromPaths(paths ...string) Capabilities {
	c := Capabilities{}
	for _, p := range paths {
		if p == "" {
			continue
		}
		c.Set(strings.Split(p, ".")...)
	}
	return c
}

// Has reports whether every segment of path resolves to a present key.
// An empty path is reported as not present.
func (c Capabilities) Has(path ...string) bool {
	if len(path) == 0 {
		return false
	}
	node := c
	for _, segment := range path {
		next, ok := node[segment]
		if !ok {
			return false
		}
		node = next
	}
	return true
}

// Get returns the subtree at path, or nil if any segment is absent.
func (c Capabilities) Get(path ...string) Capabilities {
	node := c
	for _, segment := range path {
		next, ok := node[segment]
		if !ok {
			return nil
		}
		node = next
	}
	return node
}

// Set adds path to the tree, creating intermediate nodes as needed.
// Existing nodes are kept as they are.
func (c Capabilities) Set(path ...string) {
	node := c
	for _, segment := range path {
		next, ok := node[segment]
		if !ok || next == nil {
			next = Capabilities{}
			node[segment] = next
		}
		node = next
	}
}

// Clone returns a deep copy of the tree. Clone of a nil tree is an empty tree.
func (c Capabilities) Clone() Capabilities {
	out := make(Capabilities, len(c))
	for k, v := range c {
		out[k] = v.Clone()
	}
	return out
}

// Equal reports whether both trees contain exactly the same paths.
func (c Capabilities) Equal(other Capabilities) bool {
	if len(c) != len(other) {
		return false
	}
	for k, v := range c {
		ov, ok := other[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Contains reports whether every path of other is also present in c.
func (c Capabilities) Contains(other Capabilities) bool {
	for k, v := range other {
		cv, ok := c[k]
		if !ok || !cv.Contains(v) {
			return false
		}
	}
	return true
}

// Paths lists every node of the tree as a dotted path, sorted.
func (c Capabilities) Paths() []string {
	var out []string
	var walk func(prefix string, node Capabilities)
	walk = func(prefix string, node Capabilities) {
		for k, v := range node {
			p := k
			if prefix != "" {
				p = prefix + "." + k
			}
			out = append(out, p)
			walk(p, v)
		}
	}
	walk("", c)
	sort.Strings(out)
	return out
}

// MarshalJSON encodes the tree with leaves as empty objects.
func (c Capabilities) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]Capabilities(c))
}

// UnmarshalJSON decodes a tree. Objects become nodes, true becomes a leaf,
// null and false are treated as absent keys.
func (c *Capabilities) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = Capabilities{}
		return nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("capability tree must be an object: %w", err)
	}
	out := make(Capabilities, len(raw))
	for k, v := range raw {
		v = bytes.TrimSpace(v)
		switch {
		case bytes.Equal(v, []byte("null")), bytes.Equal(v, []byte("false")):
			continue
		case bytes.Equal(v, []byte("true")):
			out[k] = Capabilities{}
		default:
			var child Capabilities
			if err := json.Unmarshal(v, &child); err != nil {
				return fmt.Errorf("capability %q: %w", k, err)
			}
			out[k] = child
		}
	}
	*c = out
	return nil
}
