package trust

// Suspension policy for repeat dispute losers. Kept separate from the
// dispute-resolution flow so it can be tested without exercising it.

// SuspensionWindowDays is the trailing window the loss count is taken over.
const SuspensionWindowDays = 30

// SuspensionLossThreshold is the number of lost disputes inside the window
// that triggers an automatic account suspension.
const SuspensionLossThreshold = 3

// ShouldSuspend decides whether a user with the given number of dispute
// losses inside the trailing window must be suspended. The window query
// itself belongs to the storage layer; this is only the policy decision.
func ShouldSuspend(recentDisputeLosses int) bool {
	return recentDisputeLosses >= SuspensionLossThreshold
}
