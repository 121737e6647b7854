package ui

import (
	"github.com/abelbrown/hyperlocal/internal/model"
	"github.com/abelbrown/hyperlocal/internal/nav"
	"github.com/abelbrown/hyperlocal/internal/persist"
	"github.com/abelbrown/hyperlocal/internal/prefs"
)

// storedIdentity is the persisted sign-in; an empty ID means signed out.
type storedIdentity struct {
	ID   string     `json:"id"`
	Tier model.Tier `json:"tier"`
}

// Session is the signed-in identity, mirrored to prefs so it survives
// restarts. It implements nav.Session.
type Session struct {
	id *persist.Sync[storedIdentity]
}

// NewSession restores the identity stored in p.
func NewSession(p *prefs.Store) *Session {
	return &Session{id: persist.NewSync(p, prefs.KeyIdentity, storedIdentity{})}
}

// Current reports the signed-in identity.
func (s *Session) Current() (nav.Identity, bool) {
	v := s.id.Value()
	if v.ID == "" {
		return nav.Identity{}, false
	}
	return nav.Identity{ID: v.ID, Tier: v.Tier}, true
}

// SignIn replaces the identity.
func (s *Session) SignIn(id string, tier model.Tier) {
	s.id.Set(storedIdentity{ID: id, Tier: tier})
}

// SignOut forgets the identity.
func (s *Session) SignOut() {
	s.id.Set(storedIdentity{})
}

// Upgrade moves a signed-in identity one tier up, stopping at pro.
func (s *Session) Upgrade() bool {
	changed := false
	s.id.Update(func(v storedIdentity) storedIdentity {
		if v.ID != "" && v.Tier < model.TierPro {
			v.Tier++
			changed = true
		}
		return v
	})
	return changed
}
