package fetcher

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSONObject(t *testing.T) {
	type row struct {
		CIK    int64  `json:"cik_str"`
		Ticker string `json:"ticker"`
	}

	obj, err := DecodeJSONObject[map[string]row](strings.NewReader(
		`{"0":{"cik_str":320193,"ticker":"AAPL"}}`))
	require.NoError(t, err)
	require.Len(t, *obj, 1)
	assert.Equal(t, int64(320193), (*obj)["0"].CIK)
}

func TestDecodeJSONObject_Malformed(t *testing.T) {
	_, err := DecodeJSONObject[map[string]string](strings.NewReader(`{"a":`))
	require.Error(t, err)
}
