// Package follower consumes a scenestream broadcast.
//
// A Follower dials the WebSocket endpoint, decodes every text message into a
// types.Snapshot and hands it to a callback. When the connection drops it
// reconnects with truncated exponential backoff and ±25 % jitter until its
// context is cancelled.
package follower
