// Package scene holds the in-memory scene graph that feeds the broadcast
// stream: named objects with Blender world transforms, the selected object,
// the current frame and the playback rate.
//
// Scene implements ws.Producer. Snapshot converts the selected object from
// Blender's Z-up frame into the Y-up frame used by three.js viewers, and
// DesiredPeriod reports one frame interval at the current fps.
package scene
