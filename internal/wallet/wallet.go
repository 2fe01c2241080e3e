// Package wallet derives the receive addresses of the account key. Nothing
// here signs or broadcasts transactions.
package wallet

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"golang.org/x/crypto/ripemd160"

	"wallet_core/models"
)

const (
	tronPrefix    = 0x41
	bitcoinP2PKH  = 0x00
	checksumBytes = 4
)

// Keys is the secp256k1 key pair shared by all receive addresses.
type Keys struct {
	priv *ecdsa.PrivateKey
}

func Generate() (*Keys, error) {
	priv, err := crypto.GenerateKey()
	if err != nil {
		return nil, errors.Wrap(err, "generate key")
	}
	return &Keys{priv: priv}, nil
}

// FromHex loads a 32-byte private key, with or without the 0x prefix.
func FromHex(privKeyHex string) (*Keys, error) {
	privBytes, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(privKeyHex), "0x"))
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode private key hex")
	}
	priv, err := crypto.ToECDSA(privBytes)
	if err != nil {
		return nil, errors.Wrap(err, "failed to convert to ECDSA")
	}
	return &Keys{priv: priv}, nil
}

func (k *Keys) PrivateKeyHex() string {
	return hex.EncodeToString(crypto.FromECDSA(k.priv))
}

func (k *Keys) EthereumAddress() string {
	return crypto.PubkeyToAddress(k.priv.PublicKey).Hex()
}

// TronAddress is the base58check form of 0x41 followed by the last 20 bytes
// of the Keccak-256 of the public key.
func (k *Keys) TronAddress() string {
	pubBytes := crypto.FromECDSAPub(&k.priv.PublicKey)[1:]
	hash := crypto.Keccak256(pubBytes)
	addr := append([]byte{tronPrefix}, hash[12:]...)
	return base58.Encode(withChecksum(addr))
}

// BitcoinAddress is the P2PKH address of the compressed public key.
func (k *Keys) BitcoinAddress() string {
	sum := sha256.Sum256(crypto.CompressPubkey(&k.priv.PublicKey))
	h := ripemd160.New()
	h.Write(sum[:])
	payload := append([]byte{bitcoinP2PKH}, h.Sum(nil)...)
	return base58.Encode(withChecksum(payload))
}

// Address returns where c is received. USDT is held as a TRC-20 token.
func (k *Keys) Address(c models.Currency) (string, error) {
	switch c {
	case models.BTC:
		return k.BitcoinAddress(), nil
	case models.ETH:
		return k.EthereumAddress(), nil
	case models.USDT:
		return k.TronAddress(), nil
	default:
		return "", errors.Wrapf(models.ErrCurrencyMismatch, "no receive address for %q", c)
	}
}

// withChecksum appends the first four bytes of double SHA-256.
func withChecksum(payload []byte) []byte {
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	out := make([]byte, 0, len(payload)+checksumBytes)
	out = append(out, payload...)
	return append(out, second[:checksumBytes]...)
}
