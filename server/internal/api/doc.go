// Package api implements the scenestream control API.
//
// New(ctrl, scene) returns an http.Handler that serves:
//
//	GET    /api/v1/status          — server state, client count, playback state
//	POST   /api/v1/server/start    — start the WebSocket server; 409 if running
//	POST   /api/v1/server/stop     — stop the WebSocket server; 409 if stopped
//	GET    /api/v1/objects         — all scene objects
//	GET    /api/v1/objects/{name}  — one object; 404 if unknown
//	PUT    /api/v1/objects/{name}  — create or replace an object
//	DELETE /api/v1/objects/{name}  — remove an object; 404 if unknown
//	PUT    /api/v1/selection       — choose the broadcast object
//	PUT    /api/v1/playback        — fps, frame, play/pause and render resolution
//	GET    /api/v1/snapshot        — the payload the next broadcast would carry
//
// All endpoints respond with Content-Type: application/json and return 405
// for unsupported methods. Request and response types are in types.go.
package api
