package manager

import (
	"context"
	"time"

	"inferd/pkg/types"
)

// Start loads the model and transitions to StateReady. It runs once at boot;
// any failure is fatal to the process, so the error wraps as a load error
// and the manager never reaches ready.
func (m *Manager) Start(ctx context.Context) error {
	m.publisher.Publish(Event{Name: EventLoadStart, Fields: map[string]any{"path": m.cfg.ModelPath, "backend": m.cfg.Backend}})
	m.log.Info().
		Str("path", m.cfg.ModelPath).
		Str("backend", m.cfg.Backend).
		Int("workers", m.cfg.Workers).
		Int("ctx_size", m.cfg.CtxSize).
		Msg("loading model")

	info := ArtifactInfo{Path: m.cfg.ModelPath, ID: m.cfg.ModelID}
	// Attach mode has no local artifact to inspect; the remote server owns it.
	if !m.attachOnly() {
		var err error
		info, err = PreflightArtifact(m.cfg.ModelPath)
		if err != nil {
			return m.failLoad(err)
		}
	}

	if err := m.engine.Load(ctx); err != nil {
		if IsLoad(err) {
			return m.failLoad(err)
		}
		return m.failLoad(ErrLoad(err))
	}

	model := types.ModelInfo{
		ID:           info.ID,
		Path:         info.Path,
		SizeMB:       info.SizeBytes / (1024 * 1024),
		Backend:      m.cfg.Backend,
		CtxSize:      m.cfg.CtxSize,
		Threads:      m.cfg.Threads,
		LoadedAtUnix: time.Now().Unix(),
	}
	if m.cfg.ModelID != "" {
		model.ID = m.cfg.ModelID
	}
	if model.ID == "" && m.cfg.ModelPath != "" {
		model.ID = deriveModelID(m.cfg.ModelPath)
	}
	if model.ID == "" {
		model.ID = "default"
	}
	m.mu.Lock()
	m.model = model
	m.state = StateReady
	m.lastErr = ""
	m.mu.Unlock()

	m.publisher.Publish(Event{Name: EventLoadReady, Fields: map[string]any{"id": model.ID, "size_mb": model.SizeMB}})
	m.log.Info().Str("id", model.ID).Int64("size_mb", model.SizeMB).Msg("model ready")
	return nil
}

func (m *Manager) failLoad(err error) error {
	m.setLastErr(err)
	m.publisher.Publish(Event{Name: EventLoadError, Fields: map[string]any{"error": err.Error()}})
	m.log.Error().Err(err).Msg("model load failed")
	return err
}

// attachOnly reports whether the engine talks to a remote server and no
// local artifact is involved.
func (m *Manager) attachOnly() bool {
	return m.cfg.Backend == BackendLlamaServer && m.cfg.ServerURL != ""
}
