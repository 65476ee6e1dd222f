package migrator

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/pseudomuto/groundskeeper/pkg/consts"
)

// ScriptParser turns raw migration script text into an ordered sequence of
// executable SQL statements.
//
// The format is deliberately simple: statements are terminated by a literal
// `;`, full-line comments start with one of the configured prefixes, and
// multi-line statements are coalesced with single spaces. Block comments
// spanning multiple lines and comments embedded mid-statement are not
// supported; this is an explicit limitation of the format, not a bug.
type ScriptParser struct {
	prefixes []string
}

// NewScriptParser creates a parser with the given full-line comment prefixes.
// With no prefixes the defaults (`/*`, `#`, `-- `) are used.
func NewScriptParser(prefixes ...string) *ScriptParser {
	if len(prefixes) == 0 {
		prefixes = consts.DefaultCommentPrefixes
	}
	return &ScriptParser{prefixes: prefixes}
}

// Parse reads script text and returns the complete statements in file order,
// each stripped of its trailing `;` and ready to execute verbatim.
//
// Trailing content with no closing `;` at end of input is silently discarded;
// statements must be terminated. An empty or all-comment input yields zero
// statements.
func (p *ScriptParser) Parse(r io.Reader) ([]string, error) {
	var (
		statements []string
		buf        string
	)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || p.isComment(line) {
			continue
		}

		if buf == "" {
			buf = line
		} else {
			buf += " " + line
		}

		if strings.HasSuffix(buf, ";") {
			statements = append(statements, strings.TrimSpace(strings.TrimSuffix(buf, ";")))
			buf = ""
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read script")
	}

	return statements, nil
}

// ParseFile loads and parses the script at path.
func (p *ScriptParser) ParseFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open script: %s", path)
	}
	defer func() { _ = f.Close() }()

	statements, err := p.Parse(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse script: %s", path)
	}
	return statements, nil
}

func (p *ScriptParser) isComment(line string) bool {
	for _, prefix := range p.prefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}
