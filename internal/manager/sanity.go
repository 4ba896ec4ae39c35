package manager

import (
	"os"
	"os/exec"
)

// SanityReport describes runtime checks for the configured backend.
type SanityReport struct {
	Backend       string `json:"backend"`
	LlamaBuilt    bool   `json:"llama_built"`
	ServerBin     string `json:"server_bin,omitempty"`
	ServerBinPath string `json:"server_bin_path,omitempty"`
	ServerURL     string `json:"server_url,omitempty"`
	Error         string `json:"error,omitempty"`
}

// SanityCheck validates that the selected backend can actually run. It does
// not mutate state and is safe to call at any time.
func (m *Manager) SanityCheck() SanityReport {
	r := SanityReport{Backend: m.cfg.Backend, LlamaBuilt: llamaBuilt}
	switch m.cfg.Backend {
	case BackendLlamaCpp:
		if !llamaBuilt {
			r.Error = "llamacpp support not built (missing 'llama' build tag)"
		}
	case BackendLlamaServer:
		if m.cfg.ServerURL != "" {
			r.ServerURL = m.cfg.ServerURL
			return r
		}
		r.ServerBin = m.cfg.ServerBin
		path, err := exec.LookPath(m.cfg.ServerBin)
		if err != nil {
			r.Error = err.Error()
			return r
		}
		if fi, err := os.Stat(path); err != nil || fi.IsDir() {
			r.Error = "server binary not usable: " + path
			return r
		}
		r.ServerBinPath = path
	default:
		r.Error = "unknown backend: " + m.cfg.Backend
	}
	return r
}
