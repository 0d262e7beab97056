package ws

// Observer receives connection and broadcast events. Implementations must be
// safe for concurrent use; methods are called from session, acceptor and
// scheduler goroutines and must not block.
type Observer interface {
	ClientConnected(addr string)
	ClientDisconnected(addr string)
	HandshakeRejected(addr string, err error)
	Broadcast(delivered, failed, bytes int)
}

type noopObserver struct{}

func (noopObserver) ClientConnected(string)          {}
func (noopObserver) ClientDisconnected(string)       {}
func (noopObserver) HandshakeRejected(string, error) {}
func (noopObserver) Broadcast(int, int, int)         {}
