package gateway

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMercadoPagoParseReturn(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantRef string
		wantOK  bool
	}{
		{
			name:    "approved via collection_status",
			query:   "collection_status=approved&external_reference=GA-20250101-AAAA",
			wantRef: "GA-20250101-AAAA",
			wantOK:  true,
		},
		{
			name:    "approved via status fallback",
			query:   "status=approved&external_reference=GA-20250101-AAAA",
			wantRef: "GA-20250101-AAAA",
			wantOK:  true,
		},
		{
			name:   "rejected payment",
			query:  "collection_status=rejected&external_reference=GA-20250101-AAAA",
			wantOK: false,
		},
		{
			name:   "approved without reference",
			query:  "collection_status=approved",
			wantOK: false,
		},
		{
			name:   "empty params",
			query:  "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, err := url.ParseQuery(tt.query)
			require.NoError(t, err)

			ref, ok := MercadoPago{}.ParseReturn(params)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantRef, ref)
		})
	}
}

func TestWompiParseReturn(t *testing.T) {
	params, err := url.ParseQuery("id=txn-123&reference=GA-20250101-AAAA")
	require.NoError(t, err)

	ref, ok := Wompi{}.ParseReturn(params)
	assert.True(t, ok)
	assert.Equal(t, "GA-20250101-AAAA", ref)

	params, err = url.ParseQuery("reference=GA-20250101-AAAA")
	require.NoError(t, err)

	_, ok = Wompi{}.ParseReturn(params)
	assert.False(t, ok)
}

func TestNewRegistry_RejectsUnknownName(t *testing.T) {
	_, err := NewRegistry([]string{"mercadopago", "paypal"})
	require.ErrorIs(t, err, ErrUnknownGateway)
}

func TestRegistryResolve(t *testing.T) {
	reg, err := NewRegistry([]string{"mercadopago", "wompi"})
	require.NoError(t, err)

	params, _ := url.ParseQuery("id=txn-1&reference=GA-20250101-BBBB")
	ref, name, ok := reg.Resolve(params)
	require.True(t, ok)
	assert.Equal(t, "GA-20250101-BBBB", ref)
	assert.Equal(t, "wompi", name)

	params, _ = url.ParseQuery("foo=bar")
	_, _, ok = reg.Resolve(params)
	assert.False(t, ok)
}

func TestRegistryGet(t *testing.T) {
	reg, err := NewRegistry([]string{"wompi"})
	require.NoError(t, err)

	gw, ok := reg.Get("wompi")
	require.True(t, ok)
	assert.Equal(t, "wompi", gw.Name())

	_, ok = reg.Get("mercadopago")
	assert.False(t, ok)
}
