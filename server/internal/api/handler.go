package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/scenestream/scenestream/server/internal/scene"
	"github.com/scenestream/scenestream/server/internal/ws"
)

const maxBodyBytes = 1 << 20

// Controller is the WebSocket server lifecycle as seen by the API.
// *ws.Server satisfies it.
type Controller interface {
	Start() error
	Stop() error
	Running() bool
	ClientCount() int
	Addr() net.Addr
}

// Handler is the HTTP handler for all /api/v1/* endpoints.
type Handler struct {
	ctrl  Controller
	scene *scene.Scene
	mux   *http.ServeMux
}

// New creates a Handler wired to the server controller and scene and
// registers all routes.
func New(ctrl Controller, sc *scene.Scene) http.Handler {
	h := &Handler{ctrl: ctrl, scene: sc, mux: http.NewServeMux()}

	h.mux.HandleFunc("/api/v1/status", h.status)
	h.mux.HandleFunc("/api/v1/server/start", h.start)
	h.mux.HandleFunc("/api/v1/server/stop", h.stop)
	h.mux.HandleFunc("/api/v1/objects", h.listObjects)
	h.mux.HandleFunc("/api/v1/objects/", h.object) // subtree, extracts {name}
	h.mux.HandleFunc("/api/v1/selection", h.selection)
	h.mux.HandleFunc("/api/v1/playback", h.playback)
	h.mux.HandleFunc("/api/v1/snapshot", h.snapshot)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// status returns GET /api/v1/status.
func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, h.currentStatus())
}

// start handles POST /api/v1/server/start.
func (h *Handler) start(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	err := h.ctrl.Start()
	switch {
	case errors.Is(err, ws.ErrAlreadyRunning):
		jsonErr(w, http.StatusConflict, "server already running")
		return
	case err != nil:
		slog.Error("api: start failed", "err", err)
		jsonErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	jsonResp(w, http.StatusOK, h.currentStatus())
}

// stop handles POST /api/v1/server/stop.
func (h *Handler) stop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	err := h.ctrl.Stop()
	switch {
	case errors.Is(err, ws.ErrNotRunning):
		jsonErr(w, http.StatusConflict, "server not running")
		return
	case err != nil:
		jsonErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	jsonResp(w, http.StatusOK, h.currentStatus())
}

// listObjects returns GET /api/v1/objects.
func (h *Handler) listObjects(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, h.scene.Objects())
}

// object handles GET, PUT and DELETE on /api/v1/objects/{name}.
func (h *Handler) object(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/api/v1/objects/")
	if name == "" {
		h.listObjects(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		o, ok := h.scene.Get(name)
		if !ok {
			jsonErr(w, http.StatusNotFound, "object not found")
			return
		}
		jsonResp(w, http.StatusOK, o)

	case http.MethodPut:
		var req ObjectRequest
		if !decodeBody(w, r, &req) {
			return
		}
		o := scene.Object{
			Name:     name,
			Type:     req.Type,
			Location: req.Location,
			Rotation: [4]float64{1, 0, 0, 0},
			Camera:   req.Camera,
		}
		if req.Rotation != nil {
			o.Rotation = *req.Rotation
		}
		if err := validateCamera(o.Camera); err != nil {
			jsonErr(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := h.scene.Upsert(o); err != nil {
			jsonErr(w, http.StatusBadRequest, err.Error())
			return
		}
		stored, _ := h.scene.Get(name)
		jsonResp(w, http.StatusOK, stored)

	case http.MethodDelete:
		if err := h.scene.Delete(name); err != nil {
			jsonErr(w, http.StatusNotFound, "object not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// selection handles PUT /api/v1/selection.
func (h *Handler) selection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req SelectionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.scene.Select(req.Object); err != nil {
		jsonErr(w, http.StatusNotFound, "object not found")
		return
	}
	jsonResp(w, http.StatusOK, h.currentStatus())
}

// playback handles PUT /api/v1/playback. The fps and resolution are checked
// before anything is applied, so a rejected request changes nothing.
func (h *Handler) playback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req PlaybackRequest
	if !decodeBody(w, r, &req) {
		return
	}

	setRes := req.ResolutionX != nil || req.ResolutionY != nil
	st := h.scene.Status()
	resX, resY := st.ResolutionX, st.ResolutionY
	if req.ResolutionX != nil {
		resX = *req.ResolutionX
	}
	if req.ResolutionY != nil {
		resY = *req.ResolutionY
	}
	if setRes && (resX <= 0 || resY <= 0) {
		jsonErr(w, http.StatusBadRequest, fmt.Sprintf("resolution must be positive, got %dx%d", resX, resY))
		return
	}

	if req.FPS != nil {
		if err := h.scene.SetFPS(*req.FPS); err != nil {
			jsonErr(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if setRes {
		if err := h.scene.SetResolution(resX, resY); err != nil {
			jsonErr(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.Frame != nil {
		h.scene.SetFrame(*req.Frame)
	}
	if req.Playing != nil {
		if *req.Playing {
			h.scene.Play()
		} else {
			h.scene.Pause()
		}
	}
	jsonResp(w, http.StatusOK, h.currentStatus())
}

// snapshot returns GET /api/v1/snapshot.
func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	v, err := h.scene.Snapshot()
	if err != nil {
		jsonErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	jsonResp(w, http.StatusOK, v)
}

// --- helpers ----------------------------------------------------------------

func (h *Handler) currentStatus() StatusResponse {
	st := h.scene.Status()
	resp := StatusResponse{
		Running:  h.ctrl.Running(),
		Clients:  h.ctrl.ClientCount(),
		FPS:      st.FPS,
		Frame:    st.Frame,
		Selected: st.Selected,
		Playing:  st.Playing,
		Objects:  st.Objects,

		ResolutionX: st.ResolutionX,
		ResolutionY: st.ResolutionY,
	}
	if addr := h.ctrl.Addr(); addr != nil {
		resp.Addr = addr.String()
	}
	return resp
}

func validateCamera(c *scene.Camera) error {
	if c == nil {
		return nil
	}
	switch c.Projection {
	case scene.ProjectionPerspective, scene.ProjectionOrthographic:
	default:
		return fmt.Errorf("camera.projection %q unknown: want PERSP|ORTHO", c.Projection)
	}
	switch c.SensorFit {
	case scene.SensorFitAuto, scene.SensorFitHorizontal, scene.SensorFitVertical, "":
	default:
		return fmt.Errorf("camera.sensor_fit %q unknown: want AUTO|HORIZONTAL|VERTICAL", c.SensorFit)
	}
	return nil
}

// decodeBody decodes a JSON request body into v, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		jsonErr(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
