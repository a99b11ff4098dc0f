package moderation

// Default rule set. Categories are ordered by severity: every reject group
// is checked before any flag group, so a text matching both is always
// rejected, never merely flagged.

const (
	CategoryMinors        = "minors"
	CategorySexual        = "sexual"
	CategoryContactInfo   = "contact_info"
	CategoryProhibitedUse = "prohibited_use"
	CategoryCodedLanguage = "coded_language"
	CategoryVague         = "vague"
)

// RedactedPlaceholder replaces contact-information matches in Redact.
const RedactedPlaceholder = "[removed]"

// minorPatterns - references to minors/children as task subjects.
var minorPatterns = []string{
	`(?i)\b(?:child|children|kid|kids|minor|minors|underage|under[\s-]?age)\b.*\b(?:care|sit|watch|babysit|nanny|tutor)`,
	`(?i)\b(?:babysit|nanny|childcare|child[\s-]?care|daycare|day[\s-]?care)\b`,
}

// sexualPatterns - sexually explicit services.
var sexualPatterns = []string{
	`(?i)\b(?:sex|sexual|erotic|nude|naked|porn|xxx|escort|massage.*happy|sensual)\b`,
	`(?i)\b(?:onlyfans|cam[\s-]?girl|cam[\s-]?boy|sugar[\s-]?daddy|sugar[\s-]?baby)\b`,
	`(?i)\b(?:hook[\s-]?up|friends[\s-]?with[\s-]?benefits|fwb|intimate[\s-]?services)\b`,
}

// contactInfoPatterns - phone numbers, emails, social handles, URLs. Shared
// between Classify (reject) and Redact (scrub); a pattern added here applies
// to both entry points.
var contactInfoPatterns = []string{
	// Phone numbers in common formats
	`\b\d{3}[\s.\-]?\d{3}[\s.\-]?\d{4}\b`,
	`\(\d{3}\)\s*\d{3}[\s.\-]?\d{4}\b`,
	`\+1[\s.\-]?\d{3}[\s.\-]?\d{3}[\s.\-]?\d{4}\b`,
	// Email addresses
	`(?i)[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`,
	// Social media handles
	`(?i)\B@[a-z0-9_]{3,}\b`,
	`(?i)\b(?:instagram|insta|ig|snapchat|snap|telegram|whatsapp|signal|discord|twitter|x\.com|tiktok|facebook|fb)\b[\s:]*[a-z0-9@_.]+`,
	// URLs
	`(?i)(?:https?://|www\.)\S+`,
}

// prohibitedUsePatterns - weapons, drug sale/purchase, gambling,
// trafficking.
var prohibitedUsePatterns = []string{
	`(?i)\b(?:weapons?|guns?|firearms?|ammunition|ammo|explosives?|bombs?)\b`,
	`(?i)\b(?:sell|buy|deal|distribute|deliver)\b.*\b(?:drug|cocaine|heroin|meth|fentanyl|marijuana|weed|cannabis)\b`,
	`(?i)\b(?:drug|cocaine|heroin|meth|fentanyl|marijuana|weed|cannabis)\b.*\b(?:sell|buy|deal|distribute|deliver)\b`,
	`(?i)\b(?:gambl(?:e|ing)|casino|betting|wager)\b`,
	`(?i)\b(?:trafficking|smuggl(?:e|ing)|forced[\s-]?labor)\b`,
}

// codedLanguagePatterns - euphemisms that usually stand in for something
// the reject groups would catch when stated plainly.
var codedLanguagePatterns = []string{
	`(?i)\b(?:party|partying|good[\s-]?time|discreet|discrete|private[\s-]?meeting)\b`,
	`(?i)\b(?:generous|arrangement|mutually[\s-]?beneficial|companionship)\b`,
	`(?i)\b(?:420|friendly|chill|open[\s-]?minded)\b`,
}

// vaguePatterns - too short to judge, or deflection phrasing.
var vaguePatterns = []string{
	`(?i)^.{0,20}$`,
	`(?i)\b(?:you[\s-]?know[\s-]?what|iykyk|wink|dm[\s-]?me|text[\s-]?me)\b`,
}

// DefaultRules returns the fixed business-policy rule set in precedence
// order. The slice is freshly built per call so callers may customize their
// copy without affecting others.
func DefaultRules() []Rule {
	return []Rule{
		{Category: CategoryMinors, Verdict: VerdictRejected, Reason: "Content references minors as task subjects", Patterns: minorPatterns},
		{Category: CategorySexual, Verdict: VerdictRejected, Reason: "Sexually explicit content", Patterns: sexualPatterns},
		{Category: CategoryContactInfo, Verdict: VerdictRejected, Reason: "Contact information not allowed", Patterns: contactInfoPatterns},
		{Category: CategoryProhibitedUse, Verdict: VerdictRejected, Reason: "Content violates prohibited use policy", Patterns: prohibitedUsePatterns},
		{Category: CategoryCodedLanguage, Verdict: VerdictFlagged, Reason: "Content contains potentially coded language", Patterns: codedLanguagePatterns},
		{Category: CategoryVague, Verdict: VerdictFlagged, Reason: "Content is vague or suspicious", Patterns: vaguePatterns},
	}
}
