// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package casting

// Receipt identifies a new ballot. Voters only ever see the reminder
// artifact and the image shown with it.
type Receipt struct {
	BallotID string
	Artifact string
	Image    string
}

// Outcome is either Valid or Invalid. Both carry a receipt of the same
// shape, and code that talks to voters must only ever call Receipt.
type Outcome interface {
	Receipt() Receipt
	outcome()
}

// Valid means the ballot will be counted unless superseded.
type Valid struct {
	Issued Receipt
}

func (v Valid) Receipt() Receipt { return v.Issued }
func (Valid) outcome() {}

// Invalid means the ballot was recorded but will never be counted.
type Invalid struct {
	Issued Receipt
}

func (v Invalid) Receipt() Receipt { return v.Issued }
func (Invalid) outcome() {}
