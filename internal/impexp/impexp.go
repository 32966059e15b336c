// Package impexp converts a ledger store to and from its text tree: a
// directory with one CSV file per table plus a manifest. Both directions
// build in a scratch location and publish with a single rename, so an
// interrupted run never leaves a partial artifact behind.
package impexp

import "errors"

// ManifestFile is the name of the schema manifest inside a text tree.
const ManifestFile = "manifest.yaml"

// ErrDestinationNotEmpty is returned when import targets an existing
// non-empty ledger. Importing never merges.
var ErrDestinationNotEmpty = errors.New("import destination is not an empty ledger")

// RunState tracks an import run. Any failure moves to StateAborted; there is
// no row-by-row rollback because nothing is published before StateCommitted.
type RunState string

const (
	StateIdle       RunState = "idle"
	StateValidating RunState = "validating"
	StateDecoding   RunState = "decoding"
	StatePopulating RunState = "populating"
	StateCommitted  RunState = "committed"
	StateAborted    RunState = "aborted"
)

// Report describes a finished import run.
type Report struct {
	State RunState
	Rows  map[string]int // table name -> rows imported
}
