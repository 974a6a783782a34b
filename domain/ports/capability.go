package ports

// CapabilityChecker answers whether the negotiated host runtime contains a
// capability path. It errors only when no runtime has been negotiated.
type CapabilityChecker interface {
	Supports(path ...string) (bool, error)
}
