package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
)

// Runner runs one command in dir.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) error
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, dir, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(out.String()))
	}
	return nil
}

// GitSync commits and pushes the state file after every save, for runs on
// CI where the repository checkout is the only persistent storage.
type GitSync struct {
	*FileStore
	token  string
	repo   string
	branch string
	runner Runner
	logger *slog.Logger
}

// NewGitSync wraps file. branch defaults to main.
func NewGitSync(file *FileStore, token, repo, branch string, logger *slog.Logger) *GitSync {
	if branch == "" {
		branch = "main"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GitSync{FileStore: file, token: token, repo: repo, branch: branch, runner: execRunner{}, logger: logger}
}

// Save writes the file, then pushes it. Only a failed push is an error;
// the file on disk is already up to date at that point.
func (g *GitSync) Save(ctx context.Context, rec Record) error {
	if err := g.FileStore.Save(ctx, rec); err != nil {
		return err
	}
	if g.token == "" || g.repo == "" {
		return errors.New("git sync: GITHUB_TOKEN or GITHUB_REPOSITORY not set")
	}

	dir := filepath.Dir(g.Path())
	file := filepath.Base(g.Path())

	// Identity, add and commit may fail harmlessly, e.g. nothing to commit.
	for _, args := range [][]string{
		{"config", "user.email", "actions@github.com"},
		{"config", "user.name", "github-actions"},
		{"add", file},
		{"commit", "-m", "ci: update " + file + " (bot)"},
	} {
		if err := g.runner.Run(ctx, dir, "git", args...); err != nil {
			g.logger.Debug("git step failed", "step", args[0], "err", g.redact(err))
		}
	}

	remote := fmt.Sprintf("https://x-access-token:%s@github.com/%s.git", g.token, g.repo)
	if err := g.runner.Run(ctx, dir, "git", "push", remote, "HEAD:refs/heads/"+g.branch); err != nil {
		return fmt.Errorf("git push: %w", g.redact(err))
	}
	g.logger.Info("💾 state committed", "file", file, "branch", g.branch)
	return nil
}

func (g *GitSync) redact(err error) error {
	if g.token == "" || !strings.Contains(err.Error(), g.token) {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), g.token, "***"))
}
