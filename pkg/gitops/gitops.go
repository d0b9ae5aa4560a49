// Package gitops implements the version-control collaborator over the git
// CLI: staging, committing, and pushing the files an orchestration run
// produced.
package gitops

import (
	"context"
	"os/exec"
	"strings"

	"github.com/pkg/errors"

	"github.com/grxkun/clawstr-skill-orchestrator/pkg/logger"
)

// Client runs git commands inside a repository.
type Client struct {
	repoPath string
}

// New creates a git client for repoPath, verifying it is inside a work tree.
func New(repoPath string) (*Client, error) {
	cmd := exec.Command("git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = repoPath
	if err := cmd.Run(); err != nil {
		return nil, errors.Wrapf(err, "not a git repository: %s", repoPath)
	}

	return &Client{repoPath: repoPath}, nil
}

// Stage adds the given paths to the index.
func (c *Client) Stage(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	args := append([]string{"add", "--"}, paths...)
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = c.repoPath
	if output, err := cmd.CombinedOutput(); err != nil {
		return errors.Wrapf(err, "failed to stage files: %s", strings.TrimSpace(string(output)))
	}

	logger.G(ctx).WithField("paths", paths).Debug("staged files")
	return nil
}

// Commit creates a commit from the staged changes and returns its hash. When
// nothing is staged it commits nothing and returns an empty hash.
func (c *Client) Commit(ctx context.Context, message string) (string, error) {
	if !c.hasStagedChanges(ctx) {
		logger.G(ctx).Info("no changes to commit")
		return "", nil
	}

	cmd := exec.CommandContext(ctx, "git", "commit", "-m", message)
	cmd.Dir = c.repoPath
	if output, err := cmd.CombinedOutput(); err != nil {
		return "", errors.Wrapf(err, "failed to commit: %s", strings.TrimSpace(string(output)))
	}

	hash, err := c.headHash(ctx)
	if err != nil {
		return "", err
	}

	logger.G(ctx).WithField("commit", hash).Info("committed changes")
	return hash, nil
}

// Push pushes commits to the remote. An empty branch pushes the current one.
func (c *Client) Push(ctx context.Context, remote, branch string) error {
	if branch == "" {
		current, err := c.currentBranch(ctx)
		if err != nil {
			return err
		}
		branch = current
	}

	cmd := exec.CommandContext(ctx, "git", "push", remote, branch)
	cmd.Dir = c.repoPath
	if output, err := cmd.CombinedOutput(); err != nil {
		return errors.Wrapf(err, "failed to push to %s/%s: %s", remote, branch, strings.TrimSpace(string(output)))
	}

	logger.G(ctx).WithField("remote", remote).WithField("branch", branch).Info("pushed changes")
	return nil
}

func (c *Client) hasStagedChanges(ctx context.Context) bool {
	cmd := exec.CommandContext(ctx, "git", "diff", "--cached", "--quiet")
	cmd.Dir = c.repoPath
	// Exit status 1 means the index differs from HEAD.
	return cmd.Run() != nil
}

func (c *Client) headHash(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "HEAD")
	cmd.Dir = c.repoPath
	output, err := cmd.Output()
	if err != nil {
		return "", errors.Wrap(err, "failed to resolve HEAD")
	}
	return strings.TrimSpace(string(output)), nil
}

func (c *Client) currentBranch(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--abbrev-ref", "HEAD")
	cmd.Dir = c.repoPath
	output, err := cmd.Output()
	if err != nil {
		return "", errors.Wrap(err, "failed to resolve current branch")
	}
	return strings.TrimSpace(string(output)), nil
}
