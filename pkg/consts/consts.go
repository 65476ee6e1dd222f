package consts

import "os"

const (
	// ModeDir is the standard file mode for creating directories
	ModeDir = os.FileMode(0o755)

	// ModeFile is the standard file mode for creating files
	ModeFile = os.FileMode(0o644)

	// DefaultLedgerTable is the reserved name of the migration ledger table
	DefaultLedgerTable = "$migration"

	// DefaultConfigFile is the project configuration file groundskeeper looks for
	DefaultConfigFile = "groundskeeper.yaml"
)

// DefaultCommentPrefixes are the prefixes that mark a full-line comment in a
// migration script. Block comments spanning multiple lines and comments embedded
// mid-statement are not supported.
var DefaultCommentPrefixes = []string{"/*", "#", "-- "}
