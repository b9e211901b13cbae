package testutils

import (
	"context"
	"errors"

	"github.com/papercomputeco/memvault/pkg/git"
)

// MockGateway is a test git gateway that records calls and returns
// configurable results.
type MockGateway struct {
	// Calls lists the gateway methods invoked, in order.
	Calls []string

	// StagedPathspecs accumulates every pathspec passed to Stage.
	StagedPathspecs []string

	// CommitMessages accumulates every message passed to Commit.
	CommitMessages []string

	// PushRefs accumulates every ref passed to PushWithRetry.
	PushRefs []git.RemoteRef

	// StatusResult is returned by Status.
	StatusResult *git.Status

	// InfoResult is returned by Info.
	InfoResult *git.Info

	// FailStage causes Stage to return a StageError.
	FailStage bool

	// FailCommit causes Commit to return a CommitError.
	FailCommit bool

	// SkipCommit causes Commit to report nothing to commit.
	SkipCommit bool

	// FailPush causes every push attempt to fail.
	FailPush bool
}

// NewMockGateway creates a gateway that succeeds at everything.
func NewMockGateway() *MockGateway {
	return &MockGateway{
		StatusResult: &git.Status{Changes: []git.Change{}},
		InfoResult: &git.Info{
			Branch:           "main",
			Remote:           "git@example.com:memory.git",
			LastCommit:       git.Unknown,
			WorkingDirectory: "/repo",
		},
	}
}

func (m *MockGateway) record(call string) {
	m.Calls = append(m.Calls, call)
}

func (m *MockGateway) Status(_ context.Context) (*git.Status, error) {
	m.record("status")
	return m.StatusResult, nil
}

func (m *MockGateway) Stage(_ context.Context, pathspec string) error {
	m.record("stage")
	m.StagedPathspecs = append(m.StagedPathspecs, pathspec)
	if m.FailStage {
		return &git.StageError{Pathspec: pathspec, Err: errors.New("mock stage failure")}
	}
	return nil
}

func (m *MockGateway) Commit(_ context.Context, message string) (*git.CommitResult, error) {
	m.record("commit")
	m.CommitMessages = append(m.CommitMessages, message)
	if m.FailCommit {
		return nil, &git.CommitError{Err: errors.New("mock commit failure")}
	}
	if m.SkipCommit {
		return &git.CommitResult{Skipped: true, Output: "nothing to commit, working tree clean"}, nil
	}
	return &git.CommitResult{Committed: true}, nil
}

func (m *MockGateway) PushWithRetry(_ context.Context, ref git.RemoteRef, policy git.RetryPolicy) *git.PushResult {
	m.record("push")
	m.PushRefs = append(m.PushRefs, ref)
	if m.FailPush {
		return &git.PushResult{
			Attempts: policy.MaxAttempts,
			LastErr:  errors.New("mock push failure"),
		}
	}
	return &git.PushResult{Success: true, Attempts: 1}
}

func (m *MockGateway) Info(_ context.Context) *git.Info {
	m.record("info")
	return m.InfoResult
}

var _ git.Gateway = (*MockGateway)(nil)
