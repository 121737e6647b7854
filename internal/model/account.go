package model

import "time"

// Tier is an account's subscription level. Higher tiers unlock more.
type Tier int

const (
	TierFree Tier = iota
	TierPlus
	TierPro
)

func (t Tier) String() string {
	switch t {
	case TierPlus:
		return "plus"
	case TierPro:
		return "pro"
	default:
		return "free"
	}
}

// Account is a marketplace user.
type Account struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Bio       string    `json:"bio"`
	Location  string    `json:"location"`
	Tier      Tier      `json:"tier"`
	Views     int       `json:"views"`
	Followers []string  `json:"followers"`
	CreatedAt time.Time `json:"createdAt"`
}

// DefaultAccount is the base every stored account is merged over.
func DefaultAccount() Account {
	return Account{Followers: []string{}}
}

func (a *Account) normalize() {
	if a.Followers == nil {
		a.Followers = []string{}
	}
}

// MergeAccounts decodes a stored account list over DefaultAccount.
func MergeAccounts(def []Account, raw []byte) ([]Account, error) {
	return mergeSlice(def, raw, DefaultAccount, (*Account).normalize)
}

// IncrementViews returns accounts with ref's view counter bumped.
// The input slice is not modified.
func IncrementViews(accounts []Account, ref string) []Account {
	out := make([]Account, len(accounts))
	copy(out, accounts)
	for i := range out {
		if out[i].ID == ref {
			out[i].Views++
			break
		}
	}
	return out
}

// FindAccount returns the account with id.
func FindAccount(accounts []Account, id string) (Account, bool) {
	for _, a := range accounts {
		if a.ID == id {
			return a, true
		}
	}
	return Account{}, false
}
