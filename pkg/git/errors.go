package git

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotRepository is returned when the working directory is not inside a git
// work tree.
var ErrNotRepository = errors.New("not a git repository")

// CommandError is a failed git invocation.
type CommandError struct {
	Args   []string
	Stdout string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		msg = strings.TrimSpace(e.Stdout)
	}
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("git %s: %s", strings.Join(e.Args, " "), msg)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// StageError means neither the targeted add nor the add-all fallback
// succeeded.
type StageError struct {
	Pathspec string
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("staging %s: %v", e.Pathspec, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// CommitError is a commit failure other than "nothing to commit".
type CommitError struct {
	Err error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit failed: %v", e.Err)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}
