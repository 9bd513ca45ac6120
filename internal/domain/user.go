package domain

import "time"

// User is a registered account holder. The username doubles as the
// identifier of the user's ledger account.
type User struct {
	ID             string
	Username       string
	HashedPassword string
	CreatedAt      time.Time
}
