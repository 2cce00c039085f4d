// internal/identity/credentials.go
package identity

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Credential holds a local administrator's salted secret hash. Local
// credentials back service-to-service calls that bypass the OAuth proxy.
type Credential struct {
	Role       string `json:"role"`
	SecretHash string `json:"-"`
	Salt       string `json:"-"`
}

// Keyring indexes local credentials by role for Basic-auth verification.
type Keyring map[string]Credential

// NewKeyring builds a Keyring from configured credentials. Entries with a
// duplicate role keep the last definition.
func NewKeyring(creds []Credential) Keyring {
	k := make(Keyring, len(creds))
	for _, c := range creds {
		k[c.Role] = c
	}
	return k
}

// Authenticate reports whether the secret matches the stored credential for
// the role. Unknown roles and malformed stored hashes read as a mismatch.
func (k Keyring) Authenticate(role, secret string) bool {
	c, ok := k[role]
	if !ok {
		return false
	}
	match, err := VerifySecret(secret, c.Salt, c.SecretHash)
	return err == nil && match
}

// HashSecret generates a salted Argon2id hash of the secret.
func HashSecret(secret string) (hash, salt string, err error) {
	rawSalt := make([]byte, 16)
	if _, err := rand.Read(rawSalt); err != nil {
		return "", "", err
	}

	rawHash := argon2.IDKey([]byte(secret), rawSalt, 1, 64*1024, 4, 32)

	return base64.StdEncoding.EncodeToString(rawHash),
		base64.StdEncoding.EncodeToString(rawSalt), nil
}

// VerifySecret compares a secret against a salted hash in constant time.
func VerifySecret(secret, salt, hash string) (bool, error) {
	rawSalt, err := base64.StdEncoding.DecodeString(salt)
	if err != nil {
		return false, fmt.Errorf("failed to decode salt: %w", err)
	}

	rawHash, err := base64.StdEncoding.DecodeString(hash)
	if err != nil {
		return false, fmt.Errorf("failed to decode hash: %w", err)
	}

	comparison := argon2.IDKey([]byte(secret), rawSalt, 1, 64*1024, 4, 32)

	return subtle.ConstantTimeCompare(rawHash, comparison) == 1, nil
}
