// Package ports defines interfaces for infrastructure operations.
// These ports enable dependency inversion - the negotiation and transport
// logic depends on abstractions, and infrastructure adapters (browser,
// in-process host) implement these interfaces.
package ports
