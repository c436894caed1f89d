// pattern: Functional Core

package format

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"gitsubstatus/internal/discovery"
)

// columnPad is added to the name width to get the combined width of the
// name, filler and branch columns.
const columnPad = 14

const (
	ellipsis     = "..."
	noGit        = "no git"
	textChanges  = "changes"
	textClean    = "no changes"
	masterBranch = "master"
)

// Formatter renders directory records as aligned table lines.
type Formatter struct {
	Palette Palette
	Width   int // name column width
}

// Line renders one record as
//
//	<name> <dashes> <branch> : <status>
//
// where the dash filler keeps the branch column right-aligned.
func (f Formatter) Line(rec discovery.DirectoryRecord) string {
	p := f.Palette
	name := ansi.Truncate(rec.Name, f.Width, ellipsis)

	nameColor := p.Name
	branch, branchColor := rec.Branch(), p.Neutral
	status, statusColor := "", ""

	if rec.IsRepository {
		if branch == masterBranch {
			branchColor = p.OK
		}
		if rec.HasChanges() {
			status, statusColor = textChanges, p.Warning
		} else {
			status, statusColor = textClean, p.OK
		}
	} else {
		nameColor = p.Muted
		branch, branchColor = noGit, p.Warning
	}

	return fmt.Sprintf("%s%s%s %s%s%s %s%s%s : %s%s%s",
		nameColor, name, p.Reset,
		p.Fill, f.filler(name, branch), p.Reset,
		branchColor, branch, p.Reset,
		statusColor, status, p.Reset,
	)
}

// FillWidth is the number of dashes placed between name and branch.
func (f Formatter) FillWidth(name, branch string) int {
	return max(f.Width+columnPad-ansi.StringWidth(name)-ansi.StringWidth(branch), 1)
}

func (f Formatter) filler(name, branch string) string {
	return strings.Repeat("-", f.FillWidth(name, branch))
}

// Header is the first line of the listing.
func Header(root string) string {
	return fmt.Sprintf("Scanning subdirectories of '%s'", root)
}
