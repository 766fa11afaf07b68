// Package server provides the remote-control HTTP surface for a running player.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// [Logging] and [Recover] are the middleware the control server installs.
//
// The [BasicRouter] implementation registers Go method patterns ("GET /snapshot") on an [http.ServeMux].
//
// # Control Handler
//
// [ControlHandler] maps requests onto the playback coordinator. Command names and arguments
// are the ones accepted by the TUI command line, e.g.
//
//	curl -X POST 'localhost:7070/command/seek?arg=1:30'
//	curl -X POST 'localhost:7070/command/mode?arg=shuffle'
//	curl localhost:7070/snapshot
//
// Commands run through the same serialized dispatcher as key presses, so the response
// reflects the state committed by that command.
package server
