// Package logging provides slog loggers with per-module levels.
//
// Call [Initialize] once at startup, then ask for a logger per module:
//
//	logging.Initialize(logging.Config{
//		Level:   "info",
//		Format:  "text",
//		Modules: map[string]string{"camera": "debug"},
//	})
//	logger := logging.GetLogger("capture").With("camera_id", id)
//
// Loggers handed out before Initialize keep working and pick up the
// configured level and handlers afterwards. [SetModuleLevel] changes a
// module's level at runtime; the API exposes it under /api/logs/levels.
//
// Every record goes to up to three sinks:
//
//	stdout   text or JSON, when stdout is a terminal, pipe, socket or file
//	journald fields per attribute, when the journal socket is present
//	buffer   in-memory ring read by [GetBuffer] and streamed over SSE
//
// Journal fields are upper-cased attribute keys, so a single camera can be
// followed with:
//
//	journalctl -t camsession CAMERA_ID=0 -f
//
// The module level comes from the [logging] table of the config file:
//
//	[logging]
//	level = "info"
//	format = "json"
//	camera = "debug"
//	api = "warn"
package logging
