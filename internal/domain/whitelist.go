package domain

import "time"

// WhitelistEntry grants automatic pro access to an email address,
// independent of payment. Created by an administrator, consulted at
// subscribe time, never touched by the synchronizer.
type WhitelistEntry struct {
	Email     string
	Note      string
	CreatedAt time.Time
}
