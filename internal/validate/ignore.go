package validate

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// IgnoreList holds lowercased gene symbols excluded from the unknown-gene gates.
type IgnoreList map[string]struct{}

// LoadIgnoreList reads one symbol per line. Blank lines and lines starting
// with "#" are skipped.
func LoadIgnoreList(path string) (IgnoreList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ignore list: %w", err)
	}
	defer f.Close()
	return ParseIgnoreList(f)
}

// ParseIgnoreList reads an ignore list from r.
func ParseIgnoreList(r io.Reader) (IgnoreList, error) {
	l := make(IgnoreList)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		l[strings.ToLower(line)] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading ignore list: %w", err)
	}
	return l, nil
}

// Contains reports whether symbol is ignored, case-insensitively.
func (l IgnoreList) Contains(symbol string) bool {
	_, ok := l[strings.ToLower(symbol)]
	return ok
}

var rnaPrefixes = []string{"rn", "mir", "linc"}

// IsRNAGeneSymbol reports whether a symbol follows RNA gene naming
// (RN7SK, MIR21, LINC00115 ...). Matching is case-insensitive.
func IsRNAGeneSymbol(symbol string) bool {
	lower := strings.ToLower(symbol)
	for _, p := range rnaPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}
