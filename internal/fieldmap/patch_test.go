package fieldmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cityRow struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Region      string  `json:"region"`
	DeliveryFee float64 `json:"deliveryFee"`
	IsActive    bool    `json:"isActive"`
}

func (c cityRow) columns() map[string]any {
	return map[string]any{
		"name":         c.Name,
		"region":       c.Region,
		"delivery_fee": c.DeliveryFee,
		"is_active":    c.IsActive,
	}
}

func TestApplyOverlaysPatch(t *testing.T) {
	current := cityRow{ID: 3, Name: "Fes", Region: "Fes-Meknes", DeliveryFee: 25, IsActive: true}

	next, err := Apply(City, current, map[string]any{"deliveryFee": 30.5, "isActive": false})
	require.NoError(t, err)
	assert.Equal(t, cityRow{ID: 3, Name: "Fes", Region: "Fes-Meknes", DeliveryFee: 30.5, IsActive: false}, next)
	assert.Equal(t, 25.0, current.DeliveryFee)

	cols, err := Select(City, next.columns(), map[string]any{"deliveryFee": 30.5, "isActive": false})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"delivery_fee": 30.5, "is_active": false}, cols)
}

func TestApplyRejectsBadInput(t *testing.T) {
	current := cityRow{Name: "Fes"}

	_, err := Apply(City, current, map[string]any{"colour": "red"})
	assert.ErrorIs(t, err, ErrUnknownField)

	_, err = Apply(City, current, map[string]any{"deliveryFee": "not a number"})
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = Select(City, current.columns(), map[string]any{"id": 4})
	assert.ErrorIs(t, err, ErrReadOnlyField)
}
