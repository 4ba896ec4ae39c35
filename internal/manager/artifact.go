package manager

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"inferd/internal/common/fsutil"
)

// ggufMagic is the little-endian magic at the start of every GGUF file.
var ggufMagic = []byte{'G', 'G', 'U', 'F'}

// ArtifactInfo describes a preflighted model file.
type ArtifactInfo struct {
	ID        string
	Path      string
	SizeBytes int64
}

// PreflightArtifact resolves and sanity-checks the model file before any
// engine touches it: the path must exist, be a regular readable file, and
// start with the GGUF magic. Failures wrap as load errors.
func PreflightArtifact(path string) (ArtifactInfo, error) {
	var info ArtifactInfo
	if strings.TrimSpace(path) == "" {
		return info, ErrLoad(fmt.Errorf("model path is empty"))
	}
	expanded, err := fsutil.ExpandHome(path)
	if err != nil {
		return info, ErrLoad(err)
	}
	fi, err := os.Stat(expanded)
	if err != nil {
		return info, ErrLoad(err)
	}
	if fi.IsDir() {
		return info, ErrLoad(fmt.Errorf("%s: is a directory", expanded))
	}
	f, err := os.Open(expanded)
	if err != nil {
		return info, ErrLoad(err)
	}
	defer f.Close()
	magic := make([]byte, 4)
	if _, err := io.ReadFull(f, magic); err != nil {
		return info, ErrLoad(fmt.Errorf("%s: read magic: %w", expanded, err))
	}
	if !bytes.Equal(magic, ggufMagic) {
		return info, ErrLoad(fmt.Errorf("%s: not a GGUF file (magic %q)", expanded, magic))
	}
	info.Path = expanded
	info.SizeBytes = fi.Size()
	info.ID = deriveModelID(expanded)
	return info, nil
}

// deriveModelID turns a model file name into a stable identifier:
// base name, extension stripped, lowercased.
func deriveModelID(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.ToLower(base)
}
