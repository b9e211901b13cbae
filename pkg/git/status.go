package git

import "strings"

// Change is one entry of `git status --porcelain`.
type Change struct {
	// Code is the two-letter XY status, e.g. "??" or " M".
	Code string `json:"code"`
	Path string `json:"path"`
}

// Status summarizes pending changes in the working tree.
type Status struct {
	HasChanges bool     `json:"hasChanges"`
	Changes    []Change `json:"changes"`
}

func parsePorcelain(out string) *Status {
	status := &Status{Changes: []Change{}}

	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if len(line) < 4 {
			continue
		}

		path := line[3:]
		// Renames are reported as "old -> new".
		if i := strings.Index(path, " -> "); i >= 0 {
			path = path[i+len(" -> "):]
		}

		status.Changes = append(status.Changes, Change{
			Code: line[:2],
			Path: strings.Trim(path, `"`),
		})
	}

	status.HasChanges = len(status.Changes) > 0
	return status
}
