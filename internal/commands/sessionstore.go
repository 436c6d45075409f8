package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"astroctl/internal/artifact"
	"astroctl/internal/config"
	"astroctl/internal/exitcode"
	"astroctl/internal/service"
	"astroctl/internal/session"
)

// loadSession restores the persisted session bound to svc. The solve
// stream slot is shared by every process using the config directory.
func loadSession(cfg *config.Config, svc service.Service) (*session.Session, error) {
	st, err := session.Load(cfg.SessionPath())
	if err != nil {
		return nil, err
	}
	return session.Restore(svc, st, logger(cfg), session.WithStreamLock(cfg.LockPath())), nil
}

// saveSession persists s, creating the config directory if needed.
func saveSession(cfg *config.Config, s *session.Session) error {
	if err := cfg.EnsureDir(); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return session.Save(cfg.SessionPath(), s.State())
}

// withSession loads the session, runs fn, and saves the session even when
// fn fails so that an expired task is remembered.
func withSession(cfg *config.Config, svc service.Service, errOut io.Writer, fn func(s *session.Session) int) int {
	s, err := loadSession(cfg, svc)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.ConfigError
	}
	code := fn(s)
	if err := saveSession(cfg, s); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		if code == exitcode.Success {
			return exitcode.ConfigError
		}
	}
	return code
}

func logger(cfg *config.Config) *slog.Logger {
	if cfg.Logger != nil {
		return cfg.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeImage writes img to dir/name unless img is empty. Returns the path
// written, or "" when nothing was written.
func writeImage(dir, name string, img *artifact.Image) (string, error) {
	if img == nil || img.Empty() {
		return "", nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	if err := img.WriteFile(path); err != nil {
		return "", err
	}
	return path, nil
}
