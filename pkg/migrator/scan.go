package migrator

import (
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var versionedPattern = regexp.MustCompile(`^(\d+)_(.+)\.sql$`)

// ScanVersioned builds versioned migration descriptors from the script files
// in dir. Files must be named `<version>_<description>.sql` (for example
// `0003_add_accounts.sql`); other files are ignored. Underscores in the
// description part become spaces. The result is ordered by version; version
// continuity is not checked here, that is the engine's job.
func ScanVersioned(dir string) ([]*VersionedMigration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read migration dir: %s", dir)
	}

	var migrations []*VersionedMigration
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		match := versionedPattern.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}

		version, err := strconv.ParseInt(match[1], 10, 64)
		if err != nil || version <= 0 {
			return nil, errors.Errorf("invalid migration version in file: %s", entry.Name())
		}

		description := strings.ReplaceAll(match[2], "_", " ")
		migrations = append(migrations, NewVersioned(version, description, entry.Name()))
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version() < migrations[j].Version()
	})

	return migrations, nil
}

// ScanDump builds dump migration descriptors from every .sql file in dir, in
// lexical order. The descriptors carry no predicate; callers that need
// conditional execution construct their own with NewDump.
func ScanDump(dir string) ([]*DumpMigration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read dump dir: %s", dir)
	}

	var migrations []*DumpMigration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		description := strings.ReplaceAll(strings.TrimSuffix(entry.Name(), ".sql"), "_", " ")
		migrations = append(migrations, NewDump(description, entry.Name(), nil))
	}

	return migrations, nil
}
