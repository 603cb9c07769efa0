// Package apikey provides an API key authenticator for parley clients. It
// validates keys presented as bearer tokens or via the X-Api-Key header
// against a static key store, using SHA-256 hashing and constant-time
// comparison.
package apikey

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/parleychat/parley/pkg/auth"
)

// Entry binds one raw API key to the identity it authenticates.
type Entry struct {
	Key      string
	Identity auth.Identity
}

// keyRecord is the stored form of an entry. Only the hash is retained.
type keyRecord struct {
	hash     [32]byte
	identity auth.Identity
}

// Authenticator validates presented API keys against a static key store.
type Authenticator struct {
	keys []keyRecord
}

// New creates an API key authenticator. Keys are hashed immediately;
// plaintext keys are not stored.
func New(entries []Entry) *Authenticator {
	a := &Authenticator{}
	for _, e := range entries {
		a.keys = append(a.keys, keyRecord{
			hash:     sha256.Sum256([]byte(e.Key)),
			identity: e.Identity,
		})
	}
	return a
}

// Authenticate extracts the presented key and validates it. Returns Yes
// when the key matches a stored hash, No when a key was presented but does
// not match, and Abstain when the request carries no API key at all so
// other authenticators in the chain can have a look.
func (a *Authenticator) Authenticate(_ context.Context, r *http.Request) auth.Result {
	key, present := presentedKey(r)
	if !present {
		return auth.Result{Decision: auth.Abstain}
	}
	if key == "" {
		return auth.Result{Decision: auth.No, Err: auth.ErrUnauthenticated}
	}

	keyHash := sha256.Sum256([]byte(key))
	for _, rec := range a.keys {
		if subtle.ConstantTimeCompare(keyHash[:], rec.hash[:]) == 1 {
			// Copy identity to avoid shared state.
			id := rec.identity
			return auth.Result{Decision: auth.Yes, Identity: &id}
		}
	}
	return auth.Result{Decision: auth.No, Err: auth.ErrUnauthenticated}
}

// presentedKey pulls the API key from the request. A Bearer token wins
// over X-Api-Key when both are present.
func presentedKey(r *http.Request) (key string, present bool) {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return token, true
		}
		// Some other scheme; not ours to judge.
		return "", false
	}
	if key := r.Header.Get("X-Api-Key"); key != "" {
		return key, true
	}
	return "", false
}
