package models

import "time"

// RefreshToken is a ledger record. Its presence is what keeps a refresh
// lineage alive; the token's own expiry is checked separately.
type RefreshToken struct {
	ID       string    `db:"id"`
	UserID   string    `db:"user_id"`
	Token    string    `db:"token"`
	IssuedOn time.Time `db:"issued_on"`
}
