// Package git drives the git binary on behalf of the backup orchestrator:
// inspecting the working tree, staging and committing snapshots and pushing
// them to a remote with bounded retries.
package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/papercomputeco/memvault/pkg/logger"
)

const (
	DefaultRemote      = "origin"
	DefaultBranch      = "main"
	DefaultMaxAttempts = 3
	DefaultBackoff     = time.Second

	// DefaultCommandTimeout bounds a single git invocation.
	DefaultCommandTimeout = time.Minute

	// Unknown stands in for any Info field git could not report.
	Unknown = "unknown"
)

// Gateway is the version control surface the orchestrator depends on.
type Gateway interface {
	Status(ctx context.Context) (*Status, error)
	Stage(ctx context.Context, pathspec string) error
	Commit(ctx context.Context, message string) (*CommitResult, error)
	PushWithRetry(ctx context.Context, ref RemoteRef, policy RetryPolicy) *PushResult
	Info(ctx context.Context) *Info
}

// RemoteRef names the push target.
type RemoteRef struct {
	Remote string
	Branch string
}

// RetryPolicy bounds push attempts. Backoff is the constant delay between
// attempts.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// CommitResult reports a commit attempt. Skipped is set when git had nothing
// to commit.
type CommitResult struct {
	Committed bool   `json:"committed"`
	Skipped   bool   `json:"skipped"`
	Output    string `json:"output,omitempty"`
}

// PushResult reports a push with retries. Exhausting every attempt is not an
// error; LastErr carries the final failure.
type PushResult struct {
	Success  bool  `json:"success"`
	Attempts int   `json:"attempts"`
	LastErr  error `json:"-"`
}

// Info describes the repository for status reporting.
type Info struct {
	Branch           string `json:"branch"`
	Remote           string `json:"remote"`
	LastCommit       string `json:"lastCommit"`
	WorkingDirectory string `json:"workingDirectory"`
}

// Client implements Gateway by running git in a fixed repository root.
type Client struct {
	root    string
	remote  string
	timeout time.Duration
	runner  Runner
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithRunner replaces the process runner.
func WithRunner(r Runner) Option {
	return func(c *Client) {
		c.runner = r
	}
}

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithCommandTimeout bounds every git invocation, including each push
// attempt. Zero disables the bound.
func WithCommandTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithRemote sets the remote whose URL Info reports.
func WithRemote(remote string) Option {
	return func(c *Client) {
		c.remote = remote
	}
}

// NewClient returns a Client operating in root.
func NewClient(root string, opts ...Option) *Client {
	c := &Client{
		root:    root,
		remote:  DefaultRemote,
		timeout: DefaultCommandTimeout,
		runner:  ExecRunner{},
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Root returns the repository root the client runs in.
func (c *Client) Root() string {
	return c.root
}

func (c *Client) run(ctx context.Context, args ...string) (string, string, error) {
	c.logger.Debug("running git", "args", args, "dir", c.root)

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	stdout, stderr, err := c.runner.Run(ctx, c.root, args...)
	if err != nil {
		return stdout, stderr, &CommandError{Args: args, Stdout: stdout, Stderr: stderr, Err: err}
	}
	return stdout, stderr, nil
}

// Status lists pending working tree changes.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	stdout, _, err := c.run(ctx, "status", "--porcelain")
	if err != nil {
		return nil, err
	}
	return parsePorcelain(stdout), nil
}

// Stage adds pathspec to the index, falling back to staging everything when
// the targeted add fails.
func (c *Client) Stage(ctx context.Context, pathspec string) error {
	_, _, err := c.run(ctx, "add", "--", pathspec)
	if err == nil {
		return nil
	}

	c.logger.Warn("targeted git add failed, staging all changes", "pathspec", pathspec, "error", err)

	if _, _, fallbackErr := c.run(ctx, "add", "-A"); fallbackErr != nil {
		return &StageError{Pathspec: pathspec, Err: errors.Join(err, fallbackErr)}
	}
	return nil
}

// Commit records the index with message. An empty index is reported as a
// skipped commit rather than an error.
func (c *Client) Commit(ctx context.Context, message string) (*CommitResult, error) {
	stdout, stderr, err := c.run(ctx, "commit", "-m", message)
	output := strings.TrimSpace(stdout + "\n" + stderr)

	if err != nil {
		if nothingToCommit(output) {
			return &CommitResult{Skipped: true, Output: output}, nil
		}
		return nil, &CommitError{Err: err}
	}

	return &CommitResult{Committed: true, Output: output}, nil
}

func nothingToCommit(output string) bool {
	return strings.Contains(output, "nothing to commit") ||
		strings.Contains(output, "nothing added to commit")
}

// PushWithRetry pushes ref up to policy.MaxAttempts times, waiting
// policy.Backoff between attempts. Cancelling ctx stops further attempts.
func (c *Client) PushWithRetry(ctx context.Context, ref RemoteRef, policy RetryPolicy) *PushResult {
	if ref.Remote == "" {
		ref.Remote = DefaultRemote
	}
	if ref.Branch == "" {
		ref.Branch = DefaultBranch
	}
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}

	result := &PushResult{}
	op := func() (struct{}, error) {
		result.Attempts++
		_, _, err := c.run(ctx, "push", ref.Remote, ref.Branch)
		if err != nil {
			c.logger.Warn("push attempt failed",
				"attempt", result.Attempts,
				"max_attempts", policy.MaxAttempts,
				"error", err,
			)
		}
		return struct{}{}, err
	}

	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(policy.Backoff)),
		backoff.WithMaxTries(uint(policy.MaxAttempts)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.logger.Debug("retrying push", "in", next, "error", err)
		}),
	)
	if err != nil {
		result.LastErr = err
		return result
	}

	result.Success = true
	return result
}

// Info reports branch, remote URL and last commit. Any query that fails is
// reported as Unknown.
func (c *Client) Info(ctx context.Context) *Info {
	info := &Info{
		Branch:           Unknown,
		Remote:           Unknown,
		LastCommit:       Unknown,
		WorkingDirectory: c.root,
	}

	if out, ok := c.query(ctx, "branch", "--show-current"); ok {
		info.Branch = out
	}
	if out, ok := c.query(ctx, "remote", "get-url", c.remote); ok {
		info.Remote = out
	}
	if out, ok := c.query(ctx, "log", "-1", "--format=%h - %s (%an, %ar)"); ok {
		info.LastCommit = out
	}

	return info
}

func (c *Client) query(ctx context.Context, args ...string) (string, bool) {
	stdout, _, err := c.run(ctx, args...)
	if err != nil {
		return "", false
	}
	out := strings.TrimSpace(stdout)
	return out, out != ""
}

// TopLevel returns the root of the work tree containing dir.
func TopLevel(ctx context.Context, runner Runner, dir string) (string, error) {
	if runner == nil {
		runner = ExecRunner{}
	}

	stdout, _, err := runner.Run(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotRepository, dir)
	}

	top := strings.TrimSpace(stdout)
	if top == "" {
		return "", fmt.Errorf("%w: %s", ErrNotRepository, dir)
	}
	return top, nil
}

var _ Gateway = (*Client)(nil)
