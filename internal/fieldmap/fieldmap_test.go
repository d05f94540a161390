package fieldmap

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTripIsLossless(t *testing.T) {
	for _, entity := range Entities() {
		entity := entity
		t.Run(string(entity), func(t *testing.T) {
			in := map[string]any{}
			for i, name := range Headers(entity) {
				in[name] = i
			}

			stored, err := ToStorage(entity, in)
			require.NoError(t, err)
			back, err := ToApp(entity, stored)
			require.NoError(t, err)

			if diff := cmp.Diff(in, back); diff != "" {
				t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTablesFollowNamingRule(t *testing.T) {
	for _, entity := range Entities() {
		m, err := Lookup(entity)
		require.NoError(t, err)
		for _, f := range m.Fields() {
			assert.Equal(t, f.Column, CamelToSnake(f.App), "%s.%s", entity, f.App)
			assert.Equal(t, f.App, SnakeToCamel(f.Column), "%s.%s", entity, f.Column)
		}
	}
}

func TestToStorageRejectsUnknownField(t *testing.T) {
	_, err := ToStorage(Order, map[string]any{"orderNumber": "ORD-1", "bogus": 1})
	assert.ErrorIs(t, err, ErrUnknownField)

	_, err = ToStorage(Entity("nope"), map[string]any{})
	assert.ErrorIs(t, err, ErrUnknownEntity)
}

func TestLenientVariantsUseGenericRule(t *testing.T) {
	out := ToStorageLenient(Order, map[string]any{"shippingCompanyId": 4, "giftWrapNote": "x"})
	assert.Equal(t, map[string]any{"shipping_company_id": 4, "gift_wrap_note": "x"}, out)

	back := ToAppLenient(Order, map[string]any{"shipping_company_id": 4, "gift_wrap_note": "x"})
	assert.Equal(t, map[string]any{"shippingCompanyId": 4, "giftWrapNote": "x"}, back)
}

func TestPatchColumnsRefusesReadOnly(t *testing.T) {
	cols, err := PatchColumns(City, map[string]any{"name": "Rabat", "deliveryFee": "20"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "Rabat", "delivery_fee": "20"}, cols)

	_, err = PatchColumns(City, map[string]any{"id": 9})
	assert.ErrorIs(t, err, ErrReadOnlyField)

	_, err = PatchColumns(Currency, map[string]any{"isDefault": true})
	assert.ErrorIs(t, err, ErrReadOnlyField)
}

func TestStorageColumnAndAppField(t *testing.T) {
	col, err := StorageColumn(Order, "orderNumber")
	require.NoError(t, err)
	assert.Equal(t, "order_number", col)

	name, err := AppField(ShippingCompany, "tracking_url_template")
	require.NoError(t, err)
	assert.Equal(t, "trackingUrlTemplate", name)

	_, err = AppField(User, "password_hash")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestResolveHeader(t *testing.T) {
	cases := map[string]string{
		"Order Number":        "orderNumber",
		"order_number":        "orderNumber",
		"ORDERNUMBER":         "orderNumber",
		"shipping-company-id": "shippingCompanyId",
		" clientPhone ":       "clientPhone",
	}
	for header, want := range cases {
		got, ok := ResolveHeader(Order, header)
		assert.True(t, ok, header)
		assert.Equal(t, want, got, header)
	}

	_, ok := ResolveHeader(Order, "colour")
	assert.False(t, ok)
}

func TestCamelSnakeConversion(t *testing.T) {
	cases := []struct{ camel, snake string }{
		{"orderNumber", "order_number"},
		{"id", "id"},
		{"trackingURL", "tracking_url"},
		{"address2Line", "address2_line"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.snake, CamelToSnake(tc.camel))
	}
	assert.Equal(t, "shippingCompanyId", SnakeToCamel("shipping_company_id"))
	assert.Equal(t, "x", SnakeToCamel("_x_"))
}

func TestHeadersOrder(t *testing.T) {
	headers := Headers(Client)
	require.NotEmpty(t, headers)
	assert.Equal(t, "id", headers[0])
	assert.Equal(t, "name", headers[1])
	assert.Nil(t, Headers(Entity("missing")))
}
