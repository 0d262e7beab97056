// Package types defines the snapshot payload shared by the server (which
// produces it) and the tail client (which decodes it). These are the JSON
// shapes streamed over the WebSocket as text frames.
package types
