package commands_test

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"astroctl/internal/commands"
	"astroctl/internal/config"
	"astroctl/internal/exitcode"
)

// TestLoginCommand_SavesToken verifies the token round-trips through token.json
func TestLoginCommand_SavesToken(t *testing.T) {
	cmd := &commands.LoginCmd{}

	var outBuf, errBuf bytes.Buffer
	cfg := &config.Config{Dir: t.TempDir()}

	code := cmd.Run(context.Background(), cfg, nil, []string{"secret-token"}, &outBuf, &errBuf)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d: %s", exitcode.Success, code, errBuf.String())
	}
	if outBuf.String() != "ok\n" {
		t.Errorf("expected 'ok', got %q", outBuf.String())
	}

	info, err := os.Stat(cfg.TokenPath())
	if err != nil {
		t.Fatalf("token file not written: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected mode 0600, got %v", info.Mode().Perm())
	}

	token, err := cfg.LoadToken()
	if err != nil {
		t.Fatalf("LoadToken: %v", err)
	}
	if token == nil || token.AccessToken != "secret-token" {
		t.Errorf("unexpected token %+v", token)
	}
}

// TestLoginCommand_Stdin verifies "-" reads the token from stdin
func TestLoginCommand_Stdin(t *testing.T) {
	commands.Stdin = strings.NewReader("  piped-token\n")
	t.Cleanup(func() { commands.Stdin = os.Stdin })

	var outBuf, errBuf bytes.Buffer
	cfg := &config.Config{Dir: t.TempDir(), Quiet: true}

	code := (&commands.LoginCmd{}).Run(context.Background(), cfg, nil, []string{"-"}, &outBuf, &errBuf)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d: %s", exitcode.Success, code, errBuf.String())
	}
	if outBuf.String() != "" {
		t.Errorf("expected no stdout in quiet mode, got %q", outBuf.String())
	}
	token, err := cfg.LoadToken()
	if err != nil || token == nil || token.AccessToken != "piped-token" {
		t.Errorf("unexpected token %+v: %v", token, err)
	}
}

// TestLoginCommand_MissingToken verifies an empty token is rejected
func TestLoginCommand_MissingToken(t *testing.T) {
	var outBuf, errBuf bytes.Buffer
	cfg := &config.Config{Dir: t.TempDir()}

	code := (&commands.LoginCmd{}).Run(context.Background(), cfg, nil, nil, &outBuf, &errBuf)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if errBuf.String() != "error: token required\n" {
		t.Errorf("unexpected stderr %q", errBuf.String())
	}
	if cfg.HasToken() {
		t.Error("no token should have been written")
	}
}

// TestLogoutCommand_NotLoggedIn verifies logout with no token
func TestLogoutCommand_NotLoggedIn(t *testing.T) {
	cmd := &commands.LogoutCmd{}

	var outBuf, errBuf bytes.Buffer
	cfg := &config.Config{Dir: t.TempDir()}

	code := cmd.Run(context.Background(), cfg, nil, nil, &outBuf, &errBuf)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if outBuf.String() != "not logged in\n" {
		t.Errorf("expected 'not logged in', got %q", outBuf.String())
	}
	if errBuf.String() != "" {
		t.Errorf("expected no stderr, got %q", errBuf.String())
	}
}

// TestLogoutCommand_RemovesToken verifies logout deletes token.json
func TestLogoutCommand_RemovesToken(t *testing.T) {
	cfg := &config.Config{Dir: t.TempDir()}
	if err := os.WriteFile(cfg.TokenPath(), []byte(`{"access_token":"x","token_type":"Bearer"}`), 0600); err != nil {
		t.Fatalf("failed to write token.json: %v", err)
	}

	var outBuf, errBuf bytes.Buffer
	code := (&commands.LogoutCmd{}).Run(context.Background(), cfg, nil, nil, &outBuf, &errBuf)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if outBuf.String() != "ok\n" {
		t.Errorf("expected 'ok', got %q", outBuf.String())
	}
	if cfg.HasToken() {
		t.Error("token.json should be removed")
	}
}
