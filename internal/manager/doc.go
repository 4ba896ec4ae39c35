// Package manager provides lifecycle, admission, and completion coordination
// for the single model this server fronts. It is structured into small files
// by concern:
//
//   - manager.go: core Manager type, constructor, simple getters.
//   - config.go: ManagerConfig and package defaults; NewWithConfig applies defaults.
//   - types.go: internal state types (State, Snapshot).
//   - errors.go: error kinds and helpers (ErrLoad/IsLoad and friends, Kind).
//   - artifact.go: artifact preflight (path, GGUF magic, size, id).
//   - gate.go: the worker gate bounding concurrent engine calls.
//   - prompt.go: chat-to-prompt rendering for the in-process engine.
//   - complete.go: the Complete request path.
//   - load.go / shutdown.go: Start and the draining Shutdown.
//   - status.go: Status/Snapshot reporting helpers.
//   - events.go / eventpub_memory.go: lifecycle event publishing.
//   - sanity.go: backend dependency checks for the check command.
//
// Engine backends:
//
//   - In-process llama (default backend "llamacpp"):
//     go-llama.cpp, enabled with `-tags=llama`.
//     Files: engine_llamacpp.go, llama_cgo.go (linker rpath hints).
//     A no-CGO stub compiles when the tag is not set: engine_llamacpp_stub.go.
//
//   - llama-server (backend "llamaserver"):
//     engine_server.go spawns `llama-server -m <model>` (or attaches to a
//     configured URL) and speaks its OpenAI-compatible API. No build tag.
//
// External packages should treat this package as the orchestration layer and
// use public methods only (NewWithConfig, Start, Complete, Shutdown, Ready,
// Status, Model, SanityCheck). Internal types are subject to change.
package manager
