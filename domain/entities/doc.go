// Package entities provides core domain entities for the SDK.
// These are general-purpose types shared by the negotiation engine, the
// transport and the thin capability modules built on top of them.
package entities
