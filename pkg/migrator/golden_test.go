package migrator_test

import (
	"strings"
	"testing"

	. "github.com/pseudomuto/groundskeeper/pkg/migrator"
	"gotest.tools/v3/golden"
)

func TestLedgerDDLGolden(t *testing.T) {
	sess := openTestSession(t)
	ledger := NewLedger(sess, "", quietLogger())

	var b strings.Builder
	for _, stmt := range ledger.DDL() {
		b.WriteString(stmt)
		b.WriteString(";\n")
	}

	golden.Assert(t, b.String(), "ledger_ddl.golden")
}
