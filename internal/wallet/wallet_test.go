package wallet

import (
	"bytes"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet_core/models"
)

const keyOne = "0000000000000000000000000000000000000000000000000000000000000001"

func TestKnownAddresses(t *testing.T) {
	k, err := FromHex("0x" + keyOne)
	require.NoError(t, err)

	assert.Equal(t, keyOne, k.PrivateKeyHex())
	assert.Equal(t, "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH", k.BitcoinAddress())
	assert.Equal(t, "0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf", k.EthereumAddress())
	assert.Equal(t, "TMVQGm1qAQYVdetCeGRRkTWYYrLXuHK2HC", k.TronAddress())

	tests := []struct {
		currency models.Currency
		want     string
	}{
		{models.BTC, "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH"},
		{models.ETH, "0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf"},
		{models.USDT, "TMVQGm1qAQYVdetCeGRRkTWYYrLXuHK2HC"},
	}
	for _, tt := range tests {
		t.Run(string(tt.currency), func(t *testing.T) {
			addr, err := k.Address(tt.currency)
			require.NoError(t, err)
			assert.Equal(t, tt.want, addr)
		})
	}

	_, err = k.Address("DOGE")
	assert.ErrorIs(t, err, models.ErrCurrencyMismatch)
}

func TestGenerateRoundTrip(t *testing.T) {
	k, err := Generate()
	require.NoError(t, err)

	again, err := FromHex(k.PrivateKeyHex())
	require.NoError(t, err)
	assert.Equal(t, k.TronAddress(), again.TronAddress())
	assert.True(t, checked(k.TronAddress(), tronPrefix))
	assert.True(t, checked(k.BitcoinAddress(), bitcoinP2PKH))
}

// checked reports whether addr is base58check with the version byte and a
// valid checksum.
func checked(addr string, version byte) bool {
	raw, err := base58.Decode(addr)
	if err != nil || len(raw) != 21+checksumBytes || raw[0] != version {
		return false
	}
	return bytes.Equal(withChecksum(raw[:21]), raw)
}

func TestChecksum(t *testing.T) {
	assert.True(t, checked("TMVQGm1qAQYVdetCeGRRkTWYYrLXuHK2HC", tronPrefix))
	assert.True(t, checked("1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH", bitcoinP2PKH))

	for _, bad := range []string{
		"",
		"TMVQGm1qAQYVdetCeGRRkTWYYrLXuHK2HD",
		"1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH",
		"not-base58-0OIl",
	} {
		assert.False(t, checked(bad, tronPrefix), bad)
	}
}

func TestFromHexRejectsGarbage(t *testing.T) {
	_, err := FromHex("zz")
	assert.Error(t, err)
	_, err = FromHex("01")
	assert.Error(t, err)
}
