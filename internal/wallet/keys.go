package wallet

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

const exportWarning = "KEEP THIS FILE SAFE. Anyone with access to your private key can control your wallet."

// Keys is an in-memory keypair. It is never written anywhere by this package;
// Export only returns bytes to the caller.
type Keys struct {
	PublicKey  solana.PublicKey
	PrivateKey solana.PrivateKey
}

// Generate creates a fresh ed25519 keypair.
func Generate() *Keys {
	w := solana.NewWallet()
	return &Keys{PublicKey: w.PublicKey(), PrivateKey: w.PrivateKey}
}

// FromKeypairData rebuilds keys from the 64-byte secret (seed || public key).
func FromKeypairData(data []byte) (*Keys, error) {
	if len(data) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("wallet: expected %d bytes, got %d", ed25519.PrivateKeySize, len(data))
	}
	priv := solana.PrivateKey(append([]byte(nil), data...))
	derived := ed25519.NewKeyFromSeed(data[:ed25519.SeedSize])
	if !bytes.Equal(derived[ed25519.SeedSize:], data[ed25519.SeedSize:]) {
		return nil, fmt.Errorf("wallet: public key does not match secret")
	}
	return &Keys{PublicKey: priv.PublicKey(), PrivateKey: priv}, nil
}

// ParsePrivateKey accepts a solana-keygen JSON byte array, a base58 string or
// the base64 form produced by Export.
func ParsePrivateKey(s string) (*Keys, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("wallet: private key is empty")
	}

	if strings.HasPrefix(s, "[") {
		var ints []int
		if err := json.Unmarshal([]byte(s), &ints); err != nil {
			return nil, fmt.Errorf("wallet: invalid JSON private key: %w", err)
		}
		b := make([]byte, len(ints))
		for i, v := range ints {
			if v < 0 || v > 255 {
				return nil, fmt.Errorf("wallet: invalid byte at %d: %d", i, v)
			}
			b[i] = byte(v)
		}
		return FromKeypairData(b)
	}

	if raw, err := base58.Decode(s); err == nil && len(raw) == ed25519.PrivateKeySize {
		return FromKeypairData(raw)
	}
	if raw, err := base64.StdEncoding.DecodeString(s); err == nil && len(raw) == ed25519.PrivateKeySize {
		return FromKeypairData(raw)
	}
	return nil, fmt.Errorf("wallet: private key is neither a %d-byte base58 nor base64 secret", ed25519.PrivateKeySize)
}

func (k *Keys) Address() string { return k.PublicKey.String() }

// KeypairData returns a copy of the 64-byte secret.
func (k *Keys) KeypairData() []byte {
	return append([]byte(nil), k.PrivateKey...)
}

// PrivateKeyBase64 is the serializable secret form.
func (k *Keys) PrivateKeyBase64() string {
	return base64.StdEncoding.EncodeToString(k.PrivateKey)
}

// ExportFile is the JSON document written by keygen.
type ExportFile struct {
	PublicKey  string `json:"publicKey"`
	PrivateKey string `json:"privateKey"`
	ExportedAt string `json:"exportedAt"`
	Warning    string `json:"warning"`
}

// Export renders keys as indented JSON.
func Export(k *Keys, now time.Time) ([]byte, error) {
	if k == nil {
		return nil, fmt.Errorf("wallet: no keys to export")
	}
	return json.MarshalIndent(ExportFile{
		PublicKey:  k.Address(),
		PrivateKey: k.PrivateKeyBase64(),
		ExportedAt: now.UTC().Format(time.RFC3339),
		Warning:    exportWarning,
	}, "", "  ")
}
