package moderation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_CleanContent(t *testing.T) {
	c := NewClassifier()

	assert.Equal(t, Clean(), c.Classify("I need someone to mow my lawn this Saturday"))
	assert.Equal(t, Clean(), c.Classify("Help me move a couch from my apartment to a storage unit downtown"))
}

func TestClassify_RejectsMinorReferences(t *testing.T) {
	c := NewClassifier()

	for _, text := range []string{
		"Need someone to babysit my kids",
		"Looking for childcare services",
		"Need a nanny for weekday afternoons",
	} {
		verdict := c.Classify(text)
		assert.True(t, verdict.IsRejected(), "expected rejection for %q, got %+v", text, verdict)
	}
}

func TestClassify_RejectsSexualContent(t *testing.T) {
	c := NewClassifier()

	verdict := c.Classify("Looking for an escort for the evening")
	assert.True(t, verdict.IsRejected())
}

func TestClassify_RejectsContactInfo(t *testing.T) {
	c := NewClassifier()

	for _, text := range []string{
		"Call me at 555-123-4567",
		"Call me at (555) 123-4567",
		"Email me at test@example.com",
		"Check out https://example.com for details",
		"Find me on instagram @cooluser",
	} {
		verdict := c.Classify(text)
		assert.True(t, verdict.IsRejected(), "expected rejection for %q, got %+v", text, verdict)
		assert.Equal(t, "Contact information not allowed", verdict.Reason, "text %q", text)
	}
}

func TestClassify_RejectsProhibitedUses(t *testing.T) {
	c := NewClassifier()

	verdict := c.Classify("Need help to sell some weed")
	assert.True(t, verdict.IsRejected())

	verdict = c.Classify("Place my bets at the casino for me")
	assert.True(t, verdict.IsRejected())
}

func TestClassify_FlagsCodedLanguage(t *testing.T) {
	c := NewClassifier()

	verdict := c.Classify("Looking for a discreet arrangement")
	assert.True(t, verdict.IsFlagged())
	assert.Equal(t, "Content contains potentially coded language", verdict.Reason)
}

func TestClassify_FlagsVagueDescriptions(t *testing.T) {
	c := NewClassifier()

	verdict := c.Classify("Help me please")
	assert.True(t, verdict.IsFlagged())

	verdict = c.Classify("I have a job for you, you know what it is, just DM me when ready")
	assert.True(t, verdict.IsFlagged())
}

func TestClassify_RejectBeatsFlag(t *testing.T) {
	c := NewClassifier()

	// Matches both a coded-language pattern ("discreet") and a contact-info
	// pattern; severity must be monotonic.
	verdict := c.Classify("Discreet work, call 555-123-4567")
	assert.True(t, verdict.IsRejected())
}

func TestRedact_StripsContactInfo(t *testing.T) {
	c := NewClassifier()

	result := c.Redact("Call me at 555-123-4567 or email test@example.com")
	assert.NotContains(t, result, "555-123-4567")
	assert.NotContains(t, result, "test@example.com")
	assert.Equal(t, 2, strings.Count(result, RedactedPlaceholder))
}

func TestRedact_LeavesCleanTextAlone(t *testing.T) {
	c := NewClassifier()

	text := "I will be there at 9 in the morning with my own tools"
	assert.Equal(t, text, c.Redact(text))
}

func TestNewClassifierWithRules_BadPattern(t *testing.T) {
	_, err := NewClassifierWithRules([]Rule{
		{Category: "broken", Verdict: VerdictRejected, Reason: "x", Patterns: []string{"("}},
	})
	require.Error(t, err)
}

func TestNewClassifierWithRules_CustomOrder(t *testing.T) {
	// A rule set where the flag group comes first must flag, proving the
	// classifier honors the table order rather than a built-in one.
	c, err := NewClassifierWithRules([]Rule{
		{Category: "first", Verdict: VerdictFlagged, Reason: "first wins", Patterns: []string{`(?i)\bweed\b`}},
		{Category: "second", Verdict: VerdictRejected, Reason: "never reached", Patterns: []string{`(?i)\bweed\b`}},
	})
	require.NoError(t, err)

	verdict := c.Classify("sell weed")
	assert.True(t, verdict.IsFlagged())
	assert.Equal(t, "first wins", verdict.Reason)
}

func TestCheckPrice(t *testing.T) {
	c := NewClassifier()

	assert.True(t, c.CheckPrice(499).IsFlagged())
	assert.True(t, c.CheckPrice(500).IsClean())
	assert.True(t, c.CheckPrice(500_000).IsClean())
	assert.True(t, c.CheckPrice(500_001).IsFlagged())
}
