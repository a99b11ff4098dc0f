package trust

// Static policy limits per trust level. The evaluator exposes these as
// lookups but does not derive them; they are fixed business policy.

// MaxTaskValueCents is the highest price a user at this level may post.
func MaxTaskValueCents(level int) int64 {
	switch level {
	case 0:
		return 10_000 // $100
	case 1:
		return 50_000 // $500
	case 2:
		return 200_000 // $2,000
	case 3:
		return 500_000 // $5,000
	}
	return 0
}

// MaxConcurrentAssigned is the cap on simultaneously assigned tasks as doer.
func MaxConcurrentAssigned(level int) int {
	switch level {
	case 0:
		return 2
	case 1:
		return 5
	case 2:
		return 10
	case 3:
		return 20
	}
	return 0
}

// MaxActivePosted is the cap on simultaneously open posted tasks as
// requester. The second return is false when the level may not post at all.
func MaxActivePosted(level int) (int, bool) {
	switch level {
	case 1:
		return 2, true
	case 2:
		return 10, true
	case 3:
		return 25, true
	}
	return 0, false // level 0 cannot post
}

// CanPostTasks reports whether the level may post tasks at all.
func CanPostTasks(level int) bool {
	return level >= 1
}

// CanApplyForTasks reports whether the level may apply for tasks.
func CanApplyForTasks(level int) bool {
	return level >= 0
}
