package ports

// MessageEvent is one message delivered to the page-level listener.
type MessageEvent struct {
	// Origin is the origin of the sending window, e.g. "https://host.example.com".
	Origin string

	// Data is the JSON encoded message.
	Data []byte

	// Ports holds channels transferred along with the message.
	Ports []MessagePort
}

// Window abstracts the cross-window messaging primitive of the host page.
// Infrastructure adapters implement this for the browser and for in-process hosts.
type Window interface {
	// PostMessage sends a JSON encoded message to the host, restricted to targetOrigin.
	// "*" addresses any origin.
	PostMessage(data []byte, targetOrigin string) error

	// Listen installs fn as the message listener and returns a function that removes it.
	Listen(fn func(MessageEvent)) (stop func())
}

// MessagePort is a dedicated bidirectional channel transferred from the host.
type MessagePort interface {
	// PostMessage sends an opaque binary frame over the channel.
	PostMessage(data []byte) error

	// Listen installs fn as the frame listener and returns a function that removes it.
	Listen(fn func(data []byte)) (stop func())

	// Close closes the channel. Further PostMessage calls fail.
	Close() error
}
