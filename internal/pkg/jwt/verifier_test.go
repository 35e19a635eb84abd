package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return key
}

func sign(t *testing.T, key *rsa.PrivateKey, method jwt.SigningMethod, claims Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func staffClaims(issuer, audience string, exp time.Time) Claims {
	return Claims{
		Name:  "Ana",
		Roles: []string{"coach"},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "staff-42",
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audience},
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
}

func TestVerifyAcceptsValidToken(t *testing.T) {
	key := newKey(t)
	v := NewVerifier(&key.PublicKey, "crm-identity", "contracts")

	token := sign(t, key, jwt.SigningMethodRS256, staffClaims("crm-identity", "contracts", time.Now().Add(time.Hour)))
	claims, err := v.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Actor() != "staff-42" || !claims.HasRole("coach") {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyRejects(t *testing.T) {
	key := newKey(t)
	other := newKey(t)
	v := NewVerifier(&key.PublicKey, "crm-identity", "contracts")
	hour := time.Now().Add(time.Hour)

	noSubject := staffClaims("crm-identity", "contracts", hour)
	noSubject.Subject = ""

	cases := map[string]string{
		"expired":       sign(t, key, jwt.SigningMethodRS256, staffClaims("crm-identity", "contracts", time.Now().Add(-time.Hour))),
		"wrong issuer":  sign(t, key, jwt.SigningMethodRS256, staffClaims("someone-else", "contracts", hour)),
		"wrong aud":     sign(t, key, jwt.SigningMethodRS256, staffClaims("crm-identity", "billing", hour)),
		"wrong key":     sign(t, other, jwt.SigningMethodRS256, staffClaims("crm-identity", "contracts", hour)),
		"no subject":    sign(t, key, jwt.SigningMethodRS256, noSubject),
		"garbage token": "not.a.token",
	}
	for name, token := range cases {
		if _, err := v.Verify(token); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}

	hs, err := jwt.NewWithClaims(jwt.SigningMethodHS256, staffClaims("crm-identity", "contracts", hour)).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign hs256: %v", err)
	}
	if _, err := v.Verify(hs); err == nil {
		t.Fatal("expected HMAC token to be rejected")
	}
}

func TestLoadVerifierFromPEM(t *testing.T) {
	key := newKey(t)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	path := filepath.Join(t.TempDir(), "pub.pem")
	if err := os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	v, err := LoadVerifier(Config{PubPath: path})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	token := sign(t, key, jwt.SigningMethodRS256, staffClaims("any", "any", time.Now().Add(time.Minute)))
	if _, err := v.Verify(token); err != nil {
		t.Fatalf("verify with loaded key: %v", err)
	}

	if _, err := LoadVerifier(Config{}); err == nil {
		t.Fatal("expected error without a key path")
	}
	if _, err := ParseRSAPublicKeyPEM([]byte("nope")); err == nil {
		t.Fatal("expected error for non-PEM input")
	}
}
