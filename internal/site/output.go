package site

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	berrors "git.home.luguber.info/inful/blogsite/internal/errors"
	"git.home.luguber.info/inful/blogsite/internal/logfields"
	"git.home.luguber.info/inful/blogsite/internal/manifest"
)

// prepareOutput creates the output directory, removing it first when
// output.clean is set. It refuses to clean a directory holding the content.
func (b *Builder) prepareOutput() error {
	if b.cfg.Output.Clean {
		if err := b.checkCleanTarget(); err != nil {
			return err
		}
		if err := os.RemoveAll(b.outputDir); err != nil {
			return berrors.WorkspaceError("clean output", err).WithContext("path", b.outputDir)
		}
		b.logger.Debug("Cleaned output directory", logfields.Path(b.outputDir))
	}
	if err := os.MkdirAll(b.outputDir, 0o755); err != nil {
		return berrors.WorkspaceError("create output", err).WithContext("path", b.outputDir)
	}
	return nil
}

func (b *Builder) checkCleanTarget() error {
	out, err := filepath.Abs(b.outputDir)
	if err != nil {
		return berrors.WorkspaceError("resolve output", err).WithContext("path", b.outputDir)
	}
	content, err := filepath.Abs(b.cfg.Content.Root)
	if err != nil {
		return berrors.WorkspaceError("resolve content root", err).WithContext("path", b.cfg.Content.Root)
	}
	if out == filepath.Dir(out) || out == content || strings.HasPrefix(content+string(filepath.Separator), out+string(filepath.Separator)) {
		return berrors.ValidationFailed("output.directory", "refusing to clean a directory that contains the content root").
			WithContext("path", b.outputDir)
	}
	return nil
}

// writeManifest stamps and writes m. It reports true without writing when the
// manifest on disk already has the same content hash.
func (b *Builder) writeManifest(ctx context.Context, m *manifest.Manifest) (bool, error) {
	hash, err := m.Hash()
	if err != nil {
		return false, berrors.InternalError("hash manifest", err)
	}
	m.ContentHash = hash
	m.GeneratedAt = b.now().UTC()

	dst := filepath.Join(b.outputDir, b.cfg.Output.Manifest)
	if prev, err := os.ReadFile(dst); err == nil {
		if old, err := manifest.FromJSON(prev); err == nil && old.ContentHash == hash {
			m.GeneratedAt = old.GeneratedAt
			b.logger.DebugContext(ctx, "Manifest unchanged", logfields.Path(dst))
			return true, nil
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, berrors.WorkspaceError("read manifest", err).WithContext("path", dst)
	}

	data, err := m.ToJSON()
	if err != nil {
		return false, berrors.InternalError("encode manifest", err)
	}
	tmp := dst + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return false, berrors.WorkspaceError("write manifest", err).WithContext("path", tmp)
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return false, berrors.WorkspaceError("write manifest", err).WithContext("path", dst)
	}
	return false, nil
}
