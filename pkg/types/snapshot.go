package types

// Vec3 is a three-component vector in the viewer's Y-up coordinate system.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Quat is a rotation quaternion in the viewer's Y-up coordinate system.
type Quat struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// FrameSnapshot is the reduced payload sent when no object is selected.
type FrameSnapshot struct {
	Frame int     `json:"frame"`
	FPS   float64 `json:"fps"`
}

// ObjectSnapshot is the full payload for the selected object.
//
// FOV is the vertical field of view in degrees and is only set for
// perspective cameras; it is serialised as null otherwise.
type ObjectSnapshot struct {
	Position   Vec3     `json:"position"`
	Quaternion Quat     `json:"quaternion"`
	Rotation   Vec3     `json:"rotation"` // Euler XYZ, radians
	FOV        *float64 `json:"fov"`
	Frame      int      `json:"frame"`
	FPS        float64  `json:"fps"`
	ObjectName string   `json:"objectName"`
	ObjectType string   `json:"objectType"`
}

// Snapshot is the decode-side union of both payload shapes. Object fields are
// nil when the server sent the reduced form.
type Snapshot struct {
	Position   *Vec3    `json:"position,omitempty"`
	Quaternion *Quat    `json:"quaternion,omitempty"`
	Rotation   *Vec3    `json:"rotation,omitempty"`
	FOV        *float64 `json:"fov,omitempty"`
	Frame      int      `json:"frame"`
	FPS        float64  `json:"fps"`
	ObjectName string   `json:"objectName,omitempty"`
	ObjectType string   `json:"objectType,omitempty"`
}

// HasObject reports whether s carries an object transform.
func (s *Snapshot) HasObject() bool {
	return s.ObjectName != "" && s.Position != nil
}
