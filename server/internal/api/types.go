package api

import "github.com/scenestream/scenestream/server/internal/scene"

// StatusResponse is the payload for GET /api/v1/status and for the server
// start/stop endpoints.
type StatusResponse struct {
	Running  bool    `json:"running"`
	Addr     string  `json:"addr,omitempty"`
	Clients  int     `json:"clients"`
	FPS      float64 `json:"fps"`
	Frame    int     `json:"frame"`
	Selected string  `json:"selected"`
	Playing  bool    `json:"playing"`
	Objects  int     `json:"objects"`

	ResolutionX int `json:"resolution_x"`
	ResolutionY int `json:"resolution_y"`
}

// ObjectRequest is the body of PUT /api/v1/objects/{name}. The name comes
// from the path.
type ObjectRequest struct {
	Type     string        `json:"type"`
	Location [3]float64    `json:"location"`
	Rotation *[4]float64   `json:"rotation"` // w, x, y, z; identity when omitted
	Camera   *scene.Camera `json:"camera,omitempty"`
}

// SelectionRequest is the body of PUT /api/v1/selection. An empty Object
// clears the selection.
type SelectionRequest struct {
	Object string `json:"object"`
}

// PlaybackRequest is the body of PUT /api/v1/playback. Omitted fields are
// left unchanged.
type PlaybackRequest struct {
	FPS     *float64 `json:"fps"`
	Frame   *int     `json:"frame"`
	Playing *bool    `json:"playing"`

	// A lone side keeps the other side's current value.
	ResolutionX *int `json:"resolution_x"`
	ResolutionY *int `json:"resolution_y"`
}

type errorResponse struct {
	Error string `json:"error"`
}
