// Package rsajwt turns a GitHub App's PEM private key into short-lived
// RS256 identity assertions.
//
// Keys arrive in either PKCS#1 ("RSA PRIVATE KEY") or PKCS#8
// ("PRIVATE KEY") textual form; PKCS#1 material is re-wrapped into a
// PKCS#8 PrivateKeyInfo before parsing so both formats go through one
// code path. Nothing is cached: every Sign call re-imports the key and
// re-derives iat/exp from the supplied clock reading, so no long-lived
// state ever holds parsed key material.
package rsajwt

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrKeyImport wraps all failures turning PEM text into a usable
	// RSA signing key.
	ErrKeyImport = errors.New("rsajwt: key import failed")

	// ErrSigning wraps failures of the signing primitive itself.
	ErrSigning = errors.New("rsajwt: signing failed")
)

const (
	pemTypePKCS1 = "RSA PRIVATE KEY"
	pemTypePKCS8 = "PRIVATE KEY"

	// GitHub rejects assertions older than 60s of clock skew and caps
	// validity at 10 minutes. Backdating iat by 60s and setting exp
	// 600s out gives a fixed 660s window.
	issuedAtBackdate = 60 * time.Second
	expiryWindow     = 10 * time.Minute
)

// ImportPrivateKey parses PEM text in either supported sub-format into
// an RSA private key. The key is only ever used for RSASSA-PKCS1v1.5 /
// SHA-256 signing.
func ImportPrivateKey(pemText []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemText)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", ErrKeyImport)
	}

	var pkcs8 []byte
	switch block.Type {
	case pemTypePKCS1:
		pkcs8 = wrapPKCS1(block.Bytes)
	case pemTypePKCS8:
		pkcs8 = block.Bytes
	default:
		return nil, fmt.Errorf("%w: unrecognized PEM type %q", ErrKeyImport, block.Type)
	}

	parsed, err := x509.ParsePKCS8PrivateKey(pkcs8)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyImport, err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: key is %T, not RSA", ErrKeyImport, parsed)
	}
	return key, nil
}

// assertionClaims is the payload of an App assertion.
type assertionClaims struct {
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
	Issuer    string `json:"iss"`
}

// Sign builds and signs an RS256 assertion for appID at the given
// instant. The key is imported fresh on every call.
func Sign(appID string, pemText []byte, now time.Time) (string, error) {
	key, err := ImportPrivateKey(pemText)
	if err != nil {
		return "", err
	}

	header := base64URL([]byte(`{"alg":"RS256","typ":"JWT"}`))

	claims := assertionClaims{
		IssuedAt:  now.Add(-issuedAtBackdate).Unix(),
		ExpiresAt: now.Add(expiryWindow).Unix(),
		Issuer:    appID,
	}
	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("%w: marshaling claims: %v", ErrSigning, err)
	}

	signingInput := header + "." + base64URL(claimsJSON)
	digest := sha256.Sum256([]byte(signingInput))
	signature, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSigning, err)
	}

	return signingInput + "." + base64URL(signature), nil
}

// base64URL encodes without padding, per RFC 7515.
func base64URL(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}
