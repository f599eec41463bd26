// Package engagement fans "track started" events out to history, play analytics and
// gamification collaborators.
//
// Every call runs on its own goroutine with a deadline and is rate limited, so a slow or
// failing collaborator never delays transport. Failures are logged and dropped.
// Achievements and level-ups returned by the gamification collaborator land in an [Inbox]
// that the UI drains.
package engagement
