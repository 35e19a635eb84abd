// internal/pkg/jwt/loader.go
package jwt

import "fmt"

type Config struct {
	PubPath  string
	Issuer   string
	Audience string
}

// LoadVerifier builds a verifier from the identity service's public key.
// Tokens are minted elsewhere, so no private key is ever loaded here.
func LoadVerifier(cfg Config) (*Verifier, error) {
	if cfg.PubPath == "" {
		return nil, fmt.Errorf("jwt public key path is not configured")
	}
	pub, err := LoadRSAPublicKeyFromPEM(cfg.PubPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load public key from %s: %w", cfg.PubPath, err)
	}
	return NewVerifier(pub, cfg.Issuer, cfg.Audience), nil
}
