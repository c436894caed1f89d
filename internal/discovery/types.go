// pattern: Functional Core

package discovery

import "gitsubstatus/internal/status"

// DirectoryRecord describes one scanned directory.
type DirectoryRecord struct {
	Name         string         // Base name (used as display name)
	Path         string         // Absolute path to the directory
	IsRepository bool           // Whether the directory holds a .git marker
	Status       *status.Status // Non-nil if and only if IsRepository
}

// Branch returns the probed branch name, or "" for non-repositories.
func (r DirectoryRecord) Branch() string {
	if r.Status == nil {
		return ""
	}
	return r.Status.Branch
}

// HasChanges reports outstanding changes; always false for non-repositories.
func (r DirectoryRecord) HasChanges() bool {
	return r.Status != nil && r.Status.HasChanges
}
