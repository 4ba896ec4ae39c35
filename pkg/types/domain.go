package types

// ModelInfo describes the single GGUF artifact this server loads at boot.
type ModelInfo struct {
	// Stable identifier, derived from the file name unless configured.
	// example: tinyllama-q4
	ID string `json:"id" example:"tinyllama-q4"`
	// Absolute path to the model file on disk.
	// example: /opt/ml/model/TinyLlama.Q4_K_M.gguf
	Path string `json:"path" example:"/opt/ml/model/TinyLlama.Q4_K_M.gguf"`
	// File size in megabytes.
	// example: 668
	SizeMB int64 `json:"size_mb" example:"668"`
	// Engine backend serving the artifact (llamacpp or llamaserver).
	// example: llamacpp
	Backend string `json:"backend" example:"llamacpp"`
	// Context window the engine was loaded with.
	// example: 4096
	CtxSize int `json:"ctx_size" example:"4096"`
	// Threads granted to each engine call.
	// example: 4
	Threads int `json:"threads" example:"4"`
	// Unix seconds when the load committed.
	// example: 1700000000
	LoadedAtUnix int64 `json:"loaded_at_unix" example:"1700000000"`
}
