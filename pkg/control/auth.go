package control

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Session authentication is a pre-shared-key scheme: both sides derive
// per-direction MAC keys from the PSK and the two handshake nonces,
// then exchange HMAC proofs over the nonces. The server proves first
// (in Welcome), the client answers (in Confirm), so each side only
// talks to a peer holding the same key for this exact session.

const (
	nonceSize  = 16
	macKeySize = 32

	keyInfo     = "resetline control v1"
	serverLabel = "server proof"
	clientLabel = "client proof"
)

func newNonce() ([]byte, error) {
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to draw nonce: %w", err)
	}
	return nonce, nil
}

// sessionKeys holds the per-direction proof keys of one handshake.
type sessionKeys struct {
	client []byte
	server []byte
}

// deriveKeys expands the PSK and both nonces into the session keys
// with HKDF-SHA256.
func deriveKeys(psk, clientNonce, serverNonce []byte) (sessionKeys, error) {
	salt := make([]byte, 0, len(clientNonce)+len(serverNonce))
	salt = append(salt, clientNonce...)
	salt = append(salt, serverNonce...)

	r := hkdf.New(sha256.New, psk, salt, []byte(keyInfo))
	keys := sessionKeys{
		client: make([]byte, macKeySize),
		server: make([]byte, macKeySize),
	}
	if _, err := io.ReadFull(r, keys.client); err != nil {
		return sessionKeys{}, fmt.Errorf("failed to derive client key: %w", err)
	}
	if _, err := io.ReadFull(r, keys.server); err != nil {
		return sessionKeys{}, fmt.Errorf("failed to derive server key: %w", err)
	}
	return keys, nil
}

func sessionProof(key []byte, label string, clientNonce, serverNonce []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(label))
	mac.Write(clientNonce)
	mac.Write(serverNonce)
	return mac.Sum(nil)
}

func verifyProof(key []byte, label string, clientNonce, serverNonce, proof []byte) bool {
	want := sessionProof(key, label, clientNonce, serverNonce)
	return hmac.Equal(want, proof)
}
