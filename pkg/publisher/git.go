package publisher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"gatecontrol-hq/gatecontrol/pkg/config"
)

// GitMirror commits each published artifact into a local repository, which
// gives a browsable history of every configuration that reached disk.
type GitMirror struct {
	mu          sync.Mutex
	path        string
	authorName  string
	authorEmail string
	repo        *gogit.Repository
	clock       func() time.Time
}

// NewGitMirror opens the repository at cfg.Path, initializing it when
// missing.
func NewGitMirror(cfg config.GitMirrorConfig) (*GitMirror, error) {
	if cfg.Path == "" {
		return nil, errors.New("git mirror path cannot be empty")
	}
	if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create repository directory: %w", err)
	}

	repo, err := gogit.PlainOpen(cfg.Path)
	if errors.Is(err, gogit.ErrRepositoryNotExists) {
		repo, err = gogit.PlainInit(cfg.Path, false)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}

	name := cfg.AuthorName
	if name == "" {
		name = "GateControl"
	}
	email := cfg.AuthorEmail
	if email == "" {
		email = "gatecontrol@localhost"
	}

	return &GitMirror{
		path:        cfg.Path,
		authorName:  name,
		authorEmail: email,
		repo:        repo,
		clock:       time.Now,
	}, nil
}

// Name implements Mirror.
func (g *GitMirror) Name() string { return "git" }

// Mirror implements Mirror. Republishing identical bytes creates no commit.
func (g *GitMirror) Mirror(_ context.Context, artifact Artifact) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	rel := filepath.ToSlash(filepath.Join(artifact.EnvironmentID, artifact.FileName))
	abs := filepath.Join(g.path, artifact.EnvironmentID, artifact.FileName)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("failed to create environment directory: %w", err)
	}
	if err := os.WriteFile(abs, artifact.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}

	worktree, err := g.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	if _, err := worktree.Add(rel); err != nil {
		return fmt.Errorf("failed to stage %s: %w", rel, err)
	}

	status, err := worktree.Status()
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}
	if status.IsClean() {
		return nil
	}

	msg := fmt.Sprintf("Publish %s\n\nConfig-Hash: %s\nPublished-By: %s\nPublish-Id: %s\n",
		artifact.EnvironmentID, artifact.Record.ConfigHash, artifact.Record.PublishedBy, artifact.Record.ID)
	_, err = worktree.Commit(msg, &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  g.authorName,
			Email: g.authorEmail,
			When:  g.clock(),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Head returns the current commit hash, or "" for an empty repository.
func (g *GitMirror) Head() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ref, err := g.repo.Head()
	if err != nil {
		return ""
	}
	return ref.Hash().String()
}
