package control

import (
	"bytes"
	"testing"
)

func TestNewNonce(t *testing.T) {
	a, err := newNonce()
	if err != nil {
		t.Fatalf("newNonce failed: %v", err)
	}
	b, err := newNonce()
	if err != nil {
		t.Fatalf("newNonce failed: %v", err)
	}

	if len(a) != nonceSize || len(b) != nonceSize {
		t.Errorf("nonce lengths = %d, %d, want %d", len(a), len(b), nonceSize)
	}
	if bytes.Equal(a, b) {
		t.Error("two nonces should not be equal")
	}
}

func TestDeriveKeysDeterministic(t *testing.T) {
	psk := []byte("bench-psk")
	clientNonce, _ := newNonce()
	serverNonce, _ := newNonce()

	first, err := deriveKeys(psk, clientNonce, serverNonce)
	if err != nil {
		t.Fatalf("deriveKeys failed: %v", err)
	}
	second, err := deriveKeys(psk, clientNonce, serverNonce)
	if err != nil {
		t.Fatalf("deriveKeys failed: %v", err)
	}

	if !bytes.Equal(first.client, second.client) || !bytes.Equal(first.server, second.server) {
		t.Error("same inputs should derive the same keys")
	}
	if bytes.Equal(first.client, first.server) {
		t.Error("client and server keys must differ")
	}
	if len(first.client) != macKeySize || len(first.server) != macKeySize {
		t.Errorf("key lengths = %d, %d, want %d", len(first.client), len(first.server), macKeySize)
	}
}

func TestDeriveKeysVaryWithInputs(t *testing.T) {
	clientNonce, _ := newNonce()
	serverNonce, _ := newNonce()
	otherNonce, _ := newNonce()

	base, _ := deriveKeys([]byte("key-a"), clientNonce, serverNonce)
	otherPSK, _ := deriveKeys([]byte("key-b"), clientNonce, serverNonce)
	otherSession, _ := deriveKeys([]byte("key-a"), clientNonce, otherNonce)

	if bytes.Equal(base.client, otherPSK.client) {
		t.Error("different PSKs should derive different keys")
	}
	if bytes.Equal(base.client, otherSession.client) {
		t.Error("different nonces should derive different keys")
	}
}

func TestProofVerify(t *testing.T) {
	psk := []byte("bench-psk")
	clientNonce, _ := newNonce()
	serverNonce, _ := newNonce()

	keys, err := deriveKeys(psk, clientNonce, serverNonce)
	if err != nil {
		t.Fatalf("deriveKeys failed: %v", err)
	}

	proof := sessionProof(keys.server, serverLabel, clientNonce, serverNonce)
	if !verifyProof(keys.server, serverLabel, clientNonce, serverNonce, proof) {
		t.Error("valid proof should verify")
	}

	// Wrong direction key.
	if verifyProof(keys.client, serverLabel, clientNonce, serverNonce, proof) {
		t.Error("proof should not verify under the client key")
	}

	// Wrong label.
	if verifyProof(keys.server, clientLabel, clientNonce, serverNonce, proof) {
		t.Error("proof should not verify under the client label")
	}

	// Swapped nonces.
	if verifyProof(keys.server, serverLabel, serverNonce, clientNonce, proof) {
		t.Error("proof should not verify with swapped nonces")
	}

	// Tampered proof.
	tampered := append([]byte(nil), proof...)
	tampered[0] ^= 0x01
	if verifyProof(keys.server, serverLabel, clientNonce, serverNonce, tampered) {
		t.Error("tampered proof should not verify")
	}

	// Missing proof.
	if verifyProof(keys.server, serverLabel, clientNonce, serverNonce, nil) {
		t.Error("nil proof should not verify")
	}
}

func TestProofRejectedAcrossSessions(t *testing.T) {
	psk := []byte("bench-psk")

	c1, _ := newNonce()
	s1, _ := newNonce()
	keys1, _ := deriveKeys(psk, c1, s1)
	proof := sessionProof(keys1.client, clientLabel, c1, s1)

	// A fresh handshake with the same PSK derives different keys, so a
	// replayed proof from the old session fails.
	c2, _ := newNonce()
	s2, _ := newNonce()
	keys2, _ := deriveKeys(psk, c2, s2)
	if verifyProof(keys2.client, clientLabel, c2, s2, proof) {
		t.Error("proof from another session should not verify")
	}
}
