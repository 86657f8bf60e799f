// Package identity mints and describes player identifiers.
//
// Players who never sign in still get a stable owner id so their progress can
// be recorded. Anonymous ids carry the "anon_" prefix; that prefix is the only
// thing the rest of the system looks at to tell them apart.
package identity

import (
	"strings"

	"github.com/google/uuid"
)

// AnonymousPrefix marks ids minted for players without an account
const AnonymousPrefix = "anon_"

// shortIDLength is how much of an anonymous id is shown in a display name
const shortIDLength = 6

// Provider implements service.IdentityProvider
type Provider struct{}

// NewProvider creates an identity provider
func NewProvider() *Provider {
	return &Provider{}
}

// NewAnonymousID returns a fresh anonymous owner id
func (p *Provider) NewAnonymousID() string {
	return AnonymousPrefix + uuid.NewString()
}

// IsAnonymous reports whether id was minted by NewAnonymousID
func (p *Provider) IsAnonymous(id string) bool {
	return IsAnonymous(id)
}

// DisplayName returns name when set, otherwise a short label derived from id
func (p *Provider) DisplayName(id, name string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	if IsAnonymous(id) {
		short := strings.TrimPrefix(id, AnonymousPrefix)
		if len(short) > shortIDLength {
			short = short[:shortIDLength]
		}
		return "Anonymous " + short
	}
	return id
}

// IsAnonymous reports whether id carries the anonymous prefix
func IsAnonymous(id string) bool {
	return strings.HasPrefix(id, AnonymousPrefix)
}
