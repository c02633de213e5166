// Package qa decides which QA pipeline a change needs and runs it.
//
// A change set is classified path by path against three glob lists, the
// classification picks one of two modes, and the runner executes that mode's
// steps one at a time as external processes.
package qa

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// PathRules holds the three ordered glob lists used to classify changed paths.
// Patterns use shell-glob syntax with ** for any number of directories and are
// matched against the whole forward-slash path, case-sensitively. Wildcards
// skip hidden segments; name them literally (".github/**") to match them.
// Brace alternatives must not contain a slash.
type PathRules struct {
	// AllowedContentPatterns are paths safe for the content fast path.
	AllowedContentPatterns []string `yaml:"allowed_content" json:"allowed_content" toml:"allowed_content"`

	// NonContentPatterns are structural paths (templates, code, config) that
	// always need the full pipeline.
	NonContentPatterns []string `yaml:"non_content" json:"non_content" toml:"non_content"`

	// A11yCriticalDataPatterns are data files that drive accessibility-relevant
	// rendering. They win over every other list.
	A11yCriticalDataPatterns []string `yaml:"a11y_critical_data" json:"a11y_critical_data" toml:"a11y_critical_data"`
}

// DefaultPathRules returns the built-in rule set for the site.
func DefaultPathRules() PathRules {
	return PathRules{
		AllowedContentPatterns: []string{
			"content/**",
			"static/img/**",
			"static/images/**",
			"static/**/*.jpg",
			"static/**/*.jpeg",
			"static/**/*.png",
			"static/**/*.webp",
			"static/**/*.gif",
			"static/**/*.svg",
			"static/**/*.pdf",
		},
		NonContentPatterns: []string{
			"layouts/**",
			"assets/**",
			"src/**",
			"scripts/**",
			"tests/**",
			"test/**",
			"config/**",
			".github/**",
			".cody/**",
			".husky/**",
			// Root configs
			"hugo.toml",
			"tailwind.config.js",
			"postcss.config.cjs",
			"playwright.config.ts",
			"vitest.config.ts",
			"lighthouserc.js",
			"package.json",
			"package-lock.json",
			"bun.lock",
			"ecosystem.config.cjs",
			".htmltest.yml",
		},
		A11yCriticalDataPatterns: []string{
			"data/nav.*",
			"data/navigation.*",
			"data/navigation/**",
			"data/footer.*",
			"data/forms/**",
			"data/aria/**",
		},
	}
}

// IsZero reports whether no pattern list is set.
func (r PathRules) IsZero() bool {
	return len(r.AllowedContentPatterns) == 0 &&
		len(r.NonContentPatterns) == 0 &&
		len(r.A11yCriticalDataPatterns) == 0
}

// Validate checks every pattern for glob syntax errors. It is meant for
// configuration load time; Classify itself never fails on a bad pattern.
func (r PathRules) Validate() error {
	lists := []struct {
		name     string
		patterns []string
	}{
		{"allowed_content", r.AllowedContentPatterns},
		{"non_content", r.NonContentPatterns},
		{"a11y_critical_data", r.A11yCriticalDataPatterns},
	}
	for _, l := range lists {
		for i, p := range l.patterns {
			if p == "" || !doublestar.ValidatePattern(p) {
				return fmt.Errorf("%s[%d]: malformed glob %q", l.name, i, p)
			}
		}
	}
	return nil
}

// Classification partitions a change set into three disjoint buckets.
// Every input path lands in exactly one bucket, so the bucket sizes always sum
// to the number of input paths.
type Classification struct {
	MatchedAllowed          []string `json:"matched_allowed" yaml:"matched_allowed"`
	MatchedNonContent       []string `json:"matched_non_content" yaml:"matched_non_content"`
	MatchedA11yCriticalData []string `json:"matched_a11y_critical_data" yaml:"matched_a11y_critical_data"`
}

// Total returns the number of classified paths.
func (c Classification) Total() int {
	return len(c.MatchedAllowed) + len(c.MatchedNonContent) + len(c.MatchedA11yCriticalData)
}

// Bucket names a classification outcome for a single path.
type Bucket string

const (
	BucketA11yCritical Bucket = "a11y_critical_data"
	BucketNonContent   Bucket = "non_content"
	BucketAllowed      Bucket = "allowed_content"
)

// ClassifyPath returns the bucket for one path. Precedence is a11y-critical,
// then non-content, then allowed; a path matching nothing is non-content.
func ClassifyPath(path string, rules PathRules) Bucket {
	switch {
	case matchesAny(path, rules.A11yCriticalDataPatterns):
		return BucketA11yCritical
	case matchesAny(path, rules.NonContentPatterns):
		return BucketNonContent
	case matchesAny(path, rules.AllowedContentPatterns):
		return BucketAllowed
	default:
		return BucketNonContent
	}
}

// Classify buckets each path independently. The input slice is not modified
// and duplicates are classified once per occurrence.
func Classify(files []string, rules PathRules) Classification {
	c := Classification{
		MatchedAllowed:          []string{},
		MatchedNonContent:       []string{},
		MatchedA11yCriticalData: []string{},
	}
	for _, f := range files {
		switch ClassifyPath(f, rules) {
		case BucketA11yCritical:
			c.MatchedA11yCriticalData = append(c.MatchedA11yCriticalData, f)
		case BucketAllowed:
			c.MatchedAllowed = append(c.MatchedAllowed, f)
		default:
			c.MatchedNonContent = append(c.MatchedNonContent, f)
		}
	}
	return c
}

// matchesAny reports whether path matches any pattern. Malformed patterns
// count as a miss.
func matchesAny(path string, patterns []string) bool {
	segs := strings.Split(path, "/")
	for _, p := range patterns {
		if matchSegments(strings.Split(p, "/"), segs) {
			return true
		}
	}
	return false
}

// matchSegments matches a pattern against a path one segment at a time.
// Wildcards never match a segment that starts with a dot: "**" will not
// descend into a hidden directory and "*" will not match a hidden file.
// A pattern segment that itself starts with a dot matches hidden names.
func matchSegments(pattern, segs []string) bool {
	for len(pattern) > 0 {
		if pattern[0] == "**" {
			rest := pattern[1:]
			for i := 0; i <= len(segs); i++ {
				if matchSegments(rest, segs[i:]) {
					return true
				}
				if i < len(segs) && strings.HasPrefix(segs[i], ".") {
					return false
				}
			}
			return false
		}
		if len(segs) == 0 || !matchSegment(pattern[0], segs[0]) {
			return false
		}
		pattern, segs = pattern[1:], segs[1:]
	}
	return len(segs) == 0
}

func matchSegment(pattern, seg string) bool {
	if strings.HasPrefix(seg, ".") && !strings.HasPrefix(pattern, ".") {
		return false
	}
	ok, err := doublestar.Match(pattern, seg)
	return err == nil && ok
}
