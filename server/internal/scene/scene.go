package scene

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/scenestream/scenestream/pkg/types"
)

// Object types.
const (
	TypeMesh   = "MESH"
	TypeCamera = "CAMERA"
	TypeEmpty  = "EMPTY"
	TypeLight  = "LIGHT"
)

// Camera projections and sensor fits.
const (
	ProjectionPerspective  = "PERSP"
	ProjectionOrthographic = "ORTHO"

	SensorFitAuto       = "AUTO"
	SensorFitHorizontal = "HORIZONTAL"
	SensorFitVertical   = "VERTICAL"
)

// DefaultFPS is the playback rate used when none is configured.
const DefaultFPS = 24

var (
	// ErrUnknownObject is returned when a name does not match any object.
	ErrUnknownObject = errors.New("scene: unknown object")

	// ErrInvalidFPS is returned by SetFPS for non-positive or non-finite rates.
	ErrInvalidFPS = errors.New("scene: fps must be positive")

	// ErrInvalidResolution is returned by SetResolution when either side is
	// not positive.
	ErrInvalidResolution = errors.New("scene: resolution must be positive")
)

// Camera is the lens data of a CAMERA object.
type Camera struct {
	Projection string  `json:"projection"`
	Angle      float64 `json:"angle"` // radians, measured along the sensor fit axis
	SensorFit  string  `json:"sensor_fit"`
}

// Object is one scene object in Blender world space (Z-up).
type Object struct {
	Name     string     `json:"name"`
	Type     string     `json:"type"`
	Location [3]float64 `json:"location"` // x, y, z
	Rotation [4]float64 `json:"rotation"` // w, x, y, z
	Camera   *Camera    `json:"camera,omitempty"`
}

// Settings are the initial scene parameters.
type Settings struct {
	FPS         float64
	Frame       int
	ResolutionX int
	ResolutionY int
}

// Status is a point-in-time summary of the scene.
type Status struct {
	FPS      float64 `json:"fps"`
	Frame    int     `json:"frame"`
	Selected string  `json:"selected"`
	Playing  bool    `json:"playing"`
	Objects  int     `json:"objects"`

	ResolutionX int `json:"resolution_x"`
	ResolutionY int `json:"resolution_y"`
}

// Scene is a thread-safe scene graph. The zero value is not usable; call New.
type Scene struct {
	mu       sync.RWMutex
	objects  map[string]*Object
	selected string
	fps      float64
	resX     int
	resY     int

	// frame is the current frame while paused and the frame at anchor while
	// playing.
	frame   int
	playing bool
	anchor  time.Time

	now func() time.Time // injectable for deterministic tests
}

// New creates an empty, paused Scene.
func New(s Settings) *Scene {
	fps := s.FPS
	if !validFPS(fps) {
		fps = DefaultFPS
	}
	return &Scene{
		objects: make(map[string]*Object),
		fps:     fps,
		frame:   s.Frame,
		resX:    s.ResolutionX,
		resY:    s.ResolutionY,
		now:     time.Now,
	}
}

func validFPS(fps float64) bool {
	return fps > 0 && !math.IsInf(fps, 0) && !math.IsNaN(fps)
}

// Upsert stores or replaces the object named o.Name. Objects without a type
// default to EMPTY.
func (s *Scene) Upsert(o Object) error {
	if o.Name == "" {
		return fmt.Errorf("scene: object name is required")
	}
	if o.Type == "" {
		o.Type = TypeEmpty
	}
	if o.Camera != nil {
		cam := *o.Camera
		o.Camera = &cam
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[o.Name] = &o
	return nil
}

// Delete removes the named object. Deleting the selected object leaves the
// selection dangling, which yields reduced snapshots until it is re-created.
func (s *Scene) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[name]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownObject, name)
	}
	delete(s.objects, name)
	return nil
}

// Get returns a copy of the named object.
func (s *Scene) Get(name string) (Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.objects[name]
	if !ok {
		return Object{}, false
	}
	return *o, true
}

// Objects returns copies of all objects sorted by name.
func (s *Scene) Objects() []Object {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Object, 0, len(s.objects))
	for _, o := range s.objects {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Select makes name the broadcast object. An empty name clears the
// selection.
func (s *Scene) Select(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name != "" {
		if _, ok := s.objects[name]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownObject, name)
		}
	}
	s.selected = name
	return nil
}

// SetFPS changes the playback rate. While playing, the frame counter is
// re-anchored so the current frame does not jump.
func (s *Scene) SetFPS(fps float64) error {
	if !validFPS(fps) {
		return fmt.Errorf("%w: got %v", ErrInvalidFPS, fps)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playing {
		now := s.now()
		s.frame = s.frameAt(now)
		s.anchor = now
	}
	s.fps = fps
	return nil
}

// SetFrame jumps to frame. Playback, if running, continues from there.
func (s *Scene) SetFrame(frame int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame = frame
	s.anchor = s.now()
}

// SetResolution sets the render resolution used for the camera aspect ratio.
func (s *Scene) SetResolution(x, y int) error {
	if x <= 0 || y <= 0 {
		return fmt.Errorf("%w: got %dx%d", ErrInvalidResolution, x, y)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resX, s.resY = x, y
	return nil
}

// Play starts advancing the frame at the current fps. It is a no-op while
// already playing.
func (s *Scene) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playing {
		return
	}
	s.playing = true
	s.anchor = s.now()
}

// Pause freezes the frame counter.
func (s *Scene) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.playing {
		return
	}
	s.frame = s.frameAt(s.now())
	s.playing = false
}

// frameAt returns the frame at t. Caller must hold s.mu.
func (s *Scene) frameAt(t time.Time) int {
	if !s.playing {
		return s.frame
	}
	elapsed := t.Sub(s.anchor).Seconds()
	if elapsed <= 0 {
		return s.frame
	}
	return s.frame + int(math.Floor(elapsed*s.fps))
}

// Frame returns the current frame.
func (s *Scene) Frame() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frameAt(s.now())
}

// FPS returns the playback rate.
func (s *Scene) FPS() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fps
}

// Status returns a summary of the scene.
func (s *Scene) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		FPS:      s.fps,
		Frame:    s.frameAt(s.now()),
		Selected: s.selected,
		Playing:  s.playing,
		Objects:  len(s.objects),

		ResolutionX: s.resX,
		ResolutionY: s.resY,
	}
}

// Snapshot returns the broadcast payload: a types.ObjectSnapshot for the
// selected object, or a types.FrameSnapshot when nothing valid is selected.
func (s *Scene) Snapshot() (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	frame := s.frameAt(s.now())
	obj, ok := s.objects[s.selected]
	if s.selected == "" || !ok {
		return types.FrameSnapshot{Frame: frame, FPS: s.fps}, nil
	}

	q, euler := orientation(obj.Rotation)
	var fov *float64
	if obj.Type == TypeCamera {
		fov = verticalFOV(obj.Camera, s.resX, s.resY)
	}

	return types.ObjectSnapshot{
		Position:   position(obj.Location),
		Quaternion: q,
		Rotation:   euler,
		FOV:        fov,
		Frame:      frame,
		FPS:        s.fps,
		ObjectName: obj.Name,
		ObjectType: obj.Type,
	}, nil
}

// DesiredPeriod returns one frame interval at the current fps.
func (s *Scene) DesiredPeriod() time.Duration {
	return time.Duration(float64(time.Second) / s.FPS())
}
