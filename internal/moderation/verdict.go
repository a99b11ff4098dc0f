package moderation

// VerdictKind is the classifier's output category.
type VerdictKind string

const (
	// VerdictClean - content can be published immediately.
	VerdictClean VerdictKind = "clean"
	// VerdictRejected - content is auto-rejected; no manual review.
	VerdictRejected VerdictKind = "rejected"
	// VerdictFlagged - content is queued for manual review.
	VerdictFlagged VerdictKind = "flagged"
)

// Verdict is the classification result. Reason is set for rejected and
// flagged verdicts and empty for clean ones.
type Verdict struct {
	Kind   VerdictKind
	Reason string
}

func Clean() Verdict {
	return Verdict{Kind: VerdictClean}
}

func Rejected(reason string) Verdict {
	return Verdict{Kind: VerdictRejected, Reason: reason}
}

func Flagged(reason string) Verdict {
	return Verdict{Kind: VerdictFlagged, Reason: reason}
}

func (v Verdict) IsClean() bool {
	return v.Kind == VerdictClean
}

func (v Verdict) IsRejected() bool {
	return v.Kind == VerdictRejected
}

func (v Verdict) IsFlagged() bool {
	return v.Kind == VerdictFlagged
}
