// pattern: Functional Core

package status

import (
	"regexp"
	"strings"
)

// Marker is the metadata entry whose presence makes a directory a repository.
const Marker = ".git"

// NoBranch is reported when the status text has no recognizable branch line.
const NoBranch = "none"

// cleanMarker is the phrase git prints when the working tree has nothing to commit.
const cleanMarker = "nothing to commit"

var branchPattern = regexp.MustCompile(`(?m)^On branch (.+?)\r?$`)

// Status is the branch and cleanliness of a single repository.
type Status struct {
	Branch     string
	HasChanges bool
}

// Parse extracts a Status from the human-readable output of `git status`.
func Parse(text string) Status {
	st := Status{
		Branch:     NoBranch,
		HasChanges: !strings.Contains(text, cleanMarker),
	}
	if m := branchPattern.FindStringSubmatch(text); m != nil {
		st.Branch = m[1]
	}
	return st
}
