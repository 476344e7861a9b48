// Package auth signs requests to the terminal gateway with RSA-PSS.
//
// A signed request carries three headers:
//
//	MT-ACCESS-KEY        key ID registered with the gateway
//	MT-ACCESS-TIMESTAMP  request time in milliseconds since epoch
//	MT-ACCESS-SIGNATURE  base64(RSA-PSS-SHA256(timestamp + method + path))
package auth

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Header names set on signed requests.
const (
	HeaderKey       = "MT-ACCESS-KEY"
	HeaderTimestamp = "MT-ACCESS-TIMESTAMP"
	HeaderSignature = "MT-ACCESS-SIGNATURE"
)

// Credentials holds the key ID and private key for signing requests.
type Credentials struct {
	KeyID      string
	PrivateKey *rsa.PrivateKey

	now func() time.Time
}

// NewCredentials pairs a key ID with an already loaded private key.
func NewCredentials(keyID string, key *rsa.PrivateKey) (*Credentials, error) {
	if keyID == "" {
		return nil, errors.New("key ID is required")
	}
	if key == nil {
		return nil, errors.New("private key is required")
	}
	return &Credentials{KeyID: keyID, PrivateKey: key}, nil
}

// LoadCredentials loads credentials from key ID and private key file path.
func LoadCredentials(keyID, privateKeyPath string) (*Credentials, error) {
	if privateKeyPath == "" {
		return nil, errors.New("private key path is required")
	}
	if keyID == "" {
		return nil, errors.New("key ID is required")
	}

	privateKey, err := LoadPrivateKey(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("load private key: %w", err)
	}

	return NewCredentials(keyID, privateKey)
}

// SignRequest returns the authentication headers for method and path.
// path excludes the query string.
func (c *Credentials) SignRequest(method, path string) (map[string]string, error) {
	now := time.Now
	if c.now != nil {
		now = c.now
	}
	timestampMs := now().UnixMilli()

	signature, err := c.sign(Message(timestampMs, method, path))
	if err != nil {
		return nil, err
	}

	return map[string]string{
		HeaderKey:       c.KeyID,
		HeaderTimestamp: strconv.FormatInt(timestampMs, 10),
		HeaderSignature: signature,
	}, nil
}

// Message builds the string that is signed for a request.
func Message(timestampMs int64, method, path string) string {
	return strconv.FormatInt(timestampMs, 10) + method + path
}

func (c *Credentials) sign(message string) (string, error) {
	hashed := sha256.Sum256([]byte(message))

	signature, err := rsa.SignPSS(
		rand.Reader,
		c.PrivateKey,
		crypto.SHA256,
		hashed[:],
		&rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash},
	)
	if err != nil {
		return "", fmt.Errorf("sign message: %w", err)
	}

	return base64.StdEncoding.EncodeToString(signature), nil
}
