package models

import (
	"time"

	"fieldcheck/internal/contract"
)

// Account is a Reddit user (kind t2).
type Account struct {
	Thing
}

func (a *Account) ModelType() contract.TypeID { return TypeAccount }

// Name returns the username.
func (a *Account) Name() *string {
	return stringAt(a.data(), "name")
}

func (a *Account) LinkKarma() *int64 {
	return intAt(a.data(), "link_karma")
}

func (a *Account) CommentKarma() *int64 {
	return intAt(a.data(), "comment_karma")
}

func (a *Account) IsGold() *bool {
	return boolAt(a.data(), "is_gold")
}

func (a *Account) IsMod() *bool {
	return boolAt(a.data(), "is_mod")
}

// HasVerifiedEmail is only reported for some accounts.
func (a *Account) HasVerifiedEmail() *bool {
	return boolAt(a.data(), "has_verified_email")
}

func (a *Account) Created() *time.Time {
	return unixAt(a.data(), "created")
}

func (a *Account) CreatedUTC() *time.Time {
	return unixAt(a.data(), "created_utc")
}
