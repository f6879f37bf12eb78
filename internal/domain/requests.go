package domain

import "github.com/shopspring/decimal"

// CreateAccountRequest carries the fields needed to open an account.
// Password is optional; an account without one cannot authenticate until
// a credential is set.
type CreateAccountRequest struct {
	FirstName      string
	LastName       string
	InitialBalance decimal.Decimal
	MobileNumber   string
	Email          string
	Password       string
}

// ProfileUpdate is a partial update of the non-financial profile fields.
// A blank field means "leave unchanged", never "set to empty".
type ProfileUpdate struct {
	FirstName    string
	LastName     string
	MobileNumber string
	Email        string
}

// IsEmpty reports whether the update would change nothing.
func (p ProfileUpdate) IsEmpty() bool {
	return p.FirstName == "" && p.LastName == "" && p.MobileNumber == "" && p.Email == ""
}
