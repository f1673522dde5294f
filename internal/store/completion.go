package store

import (
	"encoding/json"
	"os"
	"regexp"
	"time"

	"github.com/aad-go/aad/internal/errs"
)

// patternTimeoutBudget bounds how long a single IsCompleted scan may run
// before it is treated as a runaway pattern rather than waited out.
const patternTimeoutBudget = 10 * time.Millisecond

// CompletionPatterns is the on-disk JSON shape for a pattern config file.
type CompletionPatterns struct {
	Patterns []string `json:"patterns"`
}

// CompletionDetector matches task output against a fixed set of regular
// expressions that signal completion, guarding each scan with a wall-clock
// budget so a pathological pattern cannot hang the caller.
type CompletionDetector struct {
	patterns []*regexp.Regexp
}

// FromPatterns compiles patterns into a detector. Rejects an empty list and
// any pattern that fails to compile.
func FromPatterns(patterns []string) (*CompletionDetector, error) {
	if len(patterns) == 0 {
		return nil, errs.New(errs.KindPatternLoad, "completion pattern list must not be empty")
	}
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, errs.Wrap(errs.KindPatternLoad, "compiling completion pattern "+p, err)
		}
		compiled = append(compiled, re)
	}
	return &CompletionDetector{patterns: compiled}, nil
}

// FromConfig loads a CompletionPatterns JSON file from path and compiles it.
func FromConfig(path string) (*CompletionDetector, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.KindPatternLoad, "reading completion pattern config", err)
	}
	var cfg CompletionPatterns
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, errs.Wrap(errs.KindPatternLoad, "parsing completion pattern config", err)
	}
	return FromPatterns(cfg.Patterns)
}

// PatternCount reports how many patterns the detector holds.
func (d *CompletionDetector) PatternCount() int {
	return len(d.patterns)
}

// IsCompleted reports whether text matches any configured pattern. The scan
// is bounded to patternTimeoutBudget; a pattern that runs past it returns a
// recoverable KindPatternTimeout error instead of blocking indefinitely.
func (d *CompletionDetector) IsCompleted(text string) (bool, error) {
	deadline := time.Now().Add(patternTimeoutBudget)
	for _, re := range d.patterns {
		if time.Now().After(deadline) {
			return false, errs.New(errs.KindPatternTimeout, "completion pattern scan exceeded its time budget")
		}
		if re.MatchString(text) {
			return true, nil
		}
	}
	return false, nil
}
