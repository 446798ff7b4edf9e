package taskstore

// Decision is the outcome of the completion gate for one toggle.
type Decision struct {
	WillBeCompleted bool
	Award           bool
	XPAwarded       bool
}

// Decide applies the anti-replay rule: completing a task grants points only while
// xpAwarded is still false, and xpAwarded never goes back to false.
func Decide(completed, xpAwarded bool) Decision {
	willBeCompleted := !completed
	return Decision{
		WillBeCompleted: willBeCompleted,
		Award:           willBeCompleted && !xpAwarded,
		XPAwarded:       xpAwarded || willBeCompleted,
	}
}
