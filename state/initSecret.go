package state

import (
	"crypto/rsa"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// InitSecret loads the verification half of the auth keypair. Token
// issuance lives in the account service; this service only verifies.
func InitSecret(pubKeyPath string) (*rsa.PublicKey, error) {
	pubKeyBytes, err := os.ReadFile(pubKeyPath)
	if err != nil {
		return nil, err
	}

	pubKey, err := jwt.ParseRSAPublicKeyFromPEM(pubKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("invalid public key: %w", err)
	}

	log.Info().Msg("JWT public key initialized successfully")
	return pubKey, nil
}
