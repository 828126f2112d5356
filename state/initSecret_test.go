package state

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePublicKeyPEM(t *testing.T) string {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "public.pem")
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
	require.NoError(t, os.WriteFile(path, pemBytes, 0600))
	return path
}

func TestInitSecret_Success(t *testing.T) {
	path := writePublicKeyPEM(t)

	pubKey, err := InitSecret(path)

	require.NoError(t, err)
	require.NotNil(t, pubKey)
	assert.Equal(t, 2048, pubKey.Size()*8)
}

func TestInitSecret_MissingFile(t *testing.T) {
	pubKey, err := InitSecret(filepath.Join(t.TempDir(), "nope.pem"))

	assert.Error(t, err)
	assert.Nil(t, pubKey)
}

func TestInitSecret_InvalidPEM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.pem")
	require.NoError(t, os.WriteFile(path, []byte("not a pem"), 0600))

	pubKey, err := InitSecret(path)

	assert.Error(t, err)
	assert.Nil(t, pubKey)
	assert.Contains(t, err.Error(), "invalid public key")
}
