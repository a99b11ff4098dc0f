// Package moderation implements the deterministic content classifier.
//
// Safety rails, in precedence order:
//
//   - Auto-rejected: references to minors, sexually explicit language,
//     contact information, prohibited goods and activities.
//   - Flagged for review: coded/ambiguous language, vague descriptions.
//   - Contact stripping: phone numbers, emails, social handles, and URLs
//     are replaced with "[removed]" in task messages.
package moderation

import (
	"fmt"
	"regexp"
)

// Rule is one ordered group of patterns sharing a verdict and reason.
type Rule struct {
	Category string
	Verdict  VerdictKind
	Reason   string
	Patterns []string
}

type compiledRule struct {
	category string
	verdict  VerdictKind
	reason   string
	patterns []*regexp.Regexp
}

// Classifier evaluates text against an ordered rule table compiled once at
// construction. It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	rules   []compiledRule
	contact []*regexp.Regexp
}

// NewClassifier builds a classifier over the default fixed-policy rules.
func NewClassifier() *Classifier {
	c, err := NewClassifierWithRules(DefaultRules())
	if err != nil {
		// The default table is compile-time constant; a bad pattern is a
		// programming error.
		panic(err)
	}
	return c
}

// NewClassifierWithRules compiles an explicit rule table. Rules are
// evaluated in the given order; the first matching group wins.
func NewClassifierWithRules(rules []Rule) (*Classifier, error) {
	c := &Classifier{}
	for _, rule := range rules {
		compiled := compiledRule{
			category: rule.Category,
			verdict:  rule.Verdict,
			reason:   rule.Reason,
		}
		for _, p := range rule.Patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, fmt.Errorf("moderation: rule %q pattern %q: %w", rule.Category, p, err)
			}
			compiled.patterns = append(compiled.patterns, re)
		}
		c.rules = append(c.rules, compiled)
		if rule.Category == CategoryContactInfo {
			c.contact = compiled.patterns
		}
	}
	return c, nil
}

// Classify runs the rule table over the text and returns the verdict of the
// first matching group. Severity is monotonic: reject groups precede flag
// groups in the table, so one input never yields two verdicts.
func (c *Classifier) Classify(text string) Verdict {
	for _, rule := range c.rules {
		for _, re := range rule.patterns {
			if re.MatchString(text) {
				if rule.verdict == VerdictRejected {
					return Rejected(rule.reason)
				}
				return Flagged(rule.reason)
			}
		}
	}
	return Clean()
}

// Redact replaces every contact-information match with the placeholder
// token and returns the sanitized text. Used where policy is "scrub" rather
// than "reject": in-task messaging after assignment, where a blanket
// rejection would block legitimate coordination.
func (c *Classifier) Redact(text string) string {
	result := text
	for _, re := range c.contact {
		result = re.ReplaceAllString(result, RedactedPlaceholder)
	}
	return result
}

// CheckPrice flags price outliers for manual review. Out-of-band prices
// are a fraud signal, not a policy violation, so the verdict is Flagged
// rather than Rejected.
func (c *Classifier) CheckPrice(priceCents int64) Verdict {
	if priceCents < 500 {
		return Flagged("price below platform minimum")
	}
	if priceCents > 500_000 {
		return Flagged("unusually high price")
	}
	return Clean()
}
