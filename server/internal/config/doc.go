// Package config loads the scenestream server configuration from YAML.
//
// Sections:
//   - server — WebSocket listen address and timing, control API port,
//     autostart, CORS origins and API-key auth
//   - scene  — initial fps, frame, render resolution, selection and objects
//   - log    — level and optional rotating log file
//
// Load(path) applies defaults before unmarshalling, then validates. Watch
// reloads the file on change.
package config
