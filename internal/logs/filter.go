package logs

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charliek/poolwatch/internal/domain"
)

// MaxPatternLength caps filter patterns typed into the dashboard or CLI
const MaxPatternLength = 256

// Filter matches log lines against a LogFilter
type Filter struct {
	pattern string
	regex   *regexp.Regexp
	fold    bool
}

// NewFilter compiles a LogFilter. Regex patterns are validated here so
// matching never fails.
func NewFilter(filter domain.LogFilter) (*Filter, error) {
	if len(filter.Pattern) > MaxPatternLength {
		return nil, fmt.Errorf("%w: pattern exceeds maximum length of %d characters", domain.ErrInvalidPattern, MaxPatternLength)
	}

	f := &Filter{pattern: filter.Pattern, fold: filter.IgnoreCase}
	if filter.IsEmpty() {
		return f, nil
	}

	if filter.IsRegex {
		expr := filter.Pattern
		if filter.IgnoreCase {
			expr = "(?i)" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPattern, err)
		}
		f.regex = re
	} else if f.fold {
		f.pattern = strings.ToLower(f.pattern)
	}

	return f, nil
}

// Matches reports whether the entry's line matches
func (f *Filter) Matches(entry domain.LogEntry) bool {
	return f.MatchesLine(entry.Line)
}

// MatchesLine applies the pattern to a raw line
func (f *Filter) MatchesLine(line string) bool {
	switch {
	case f.pattern == "":
		return true
	case f.regex != nil:
		return f.regex.MatchString(line)
	case f.fold:
		return strings.Contains(strings.ToLower(line), f.pattern)
	default:
		return strings.Contains(line, f.pattern)
	}
}

// Apply returns the matching entries in order
func (f *Filter) Apply(entries []domain.LogEntry) []domain.LogEntry {
	if f.pattern == "" {
		return entries
	}
	out := make([]domain.LogEntry, 0, len(entries))
	for _, entry := range entries {
		if f.MatchesLine(entry.Line) {
			out = append(out, entry)
		}
	}
	return out
}

// FilterEntriesLimit filters entries and keeps at most the newest limit of
// them. total is the match count before the limit. A limit of zero keeps
// everything.
func FilterEntriesLimit(entries []domain.LogEntry, filter domain.LogFilter, limit int) (result []domain.LogEntry, total int, err error) {
	f, err := NewFilter(filter)
	if err != nil {
		return nil, 0, err
	}

	result = f.Apply(entries)
	total = len(result)
	if limit > 0 && total > limit {
		result = result[total-limit:]
	}
	return result, total, nil
}
