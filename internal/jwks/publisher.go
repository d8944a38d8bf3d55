// Package jwks publishes the gateway's verification keys as a JSON Web Key Set.
package jwks

import (
	"crypto/rsa"
	"fmt"
	"sort"

	"github.com/go-jose/go-jose/v4"
)

const algorithm = "RS256"

// KeySource exposes public verification material.
type KeySource interface {
	ActivePublicKey() (string, *rsa.PublicKey, error)
	PublicKeys() map[string]*rsa.PublicKey
}

type Publisher struct {
	keys KeySource
}

func NewPublisher(keys KeySource) *Publisher {
	return &Publisher{keys: keys}
}

// Publish returns the active key first, followed by historical keys sorted
// by identifier. It fails rather than return a set without the active key.
func (p *Publisher) Publish() (*jose.JSONWebKeySet, error) {
	activeID, active, err := p.keys.ActivePublicKey()
	if err != nil {
		return nil, fmt.Errorf("active public key: %w", err)
	}

	set := &jose.JSONWebKeySet{Keys: []jose.JSONWebKey{webKey(activeID, active)}}

	historical := p.keys.PublicKeys()
	delete(historical, activeID)
	ids := make([]string, 0, len(historical))
	for kid := range historical {
		ids = append(ids, kid)
	}
	sort.Strings(ids)
	for _, kid := range ids {
		set.Keys = append(set.Keys, webKey(kid, historical[kid]))
	}
	return set, nil
}

func webKey(kid string, key *rsa.PublicKey) jose.JSONWebKey {
	return jose.JSONWebKey{
		Key:       key,
		KeyID:     kid,
		Algorithm: algorithm,
		Use:       "sig",
	}
}
