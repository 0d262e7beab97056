// Package ws implements the scenestream WebSocket server without a WebSocket
// library: the RFC 6455 opening handshake, text-frame encoding, and the
// connection lifecycle are all done here on top of net.
//
// New(cfg, producer, opts...) creates a stopped Server.
// Server.Start binds cfg.Addr and starts two loops: the accept loop, which
// spawns one session goroutine per connection, and the broadcast loop, which
// asks the Producer for a snapshot every DesiredPeriod and fans it out to all
// registered clients. Server.Stop cancels both, closes every client and the
// listener, and waits for all goroutines.
//
// Sessions never interpret inbound frames. Bytes sent by a client, including
// close and ping frames, are read and discarded; a disconnect is detected
// only through a read error or EOF.
//
// Frames sent to clients:
//
//	0x81 | len(7) [| ext len 16/64, big-endian] | JSON payload
//
// Accept and read calls wait at most Config.PollInterval so that Stop is
// observed within one interval. Broadcast writes use Config.WriteTimeout;
// a client whose write fails is dropped.
package ws
