package measurement

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/internal/core/apperror"
	"atelier/internal/core/id"
)

func TestValues_DecodeKeepsPrecision(t *testing.T) {
	var m Measurement
	require.NoError(t, json.Unmarshal([]byte(`{"garment":"coat","values":{"chest":96.25,"sleeve":"61.5"}}`), &m))

	assert.True(t, m.Values["chest"].Equal(decimal.RequireFromString("96.25")))
	assert.True(t, m.Values["sleeve"].Equal(decimal.RequireFromString("61.5")))
	assert.Equal(t, []string{"chest", "sleeve"}, m.Values.Points())
}

func TestValues_ScanValue(t *testing.T) {
	in := Values{"waist": decimal.RequireFromString("80.5")}
	raw, err := in.Value()
	require.NoError(t, err)

	var out Values
	require.NoError(t, out.Scan(raw))
	assert.True(t, out["waist"].Equal(in["waist"]))

	require.NoError(t, out.Scan(nil))
	assert.Empty(t, out)

	empty, err := Values(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), empty)

	assert.Error(t, out.Scan(42))
}

func TestMeasurement_Validate(t *testing.T) {
	ctx := context.Background()

	m := NewMeasurement(id.New(), "trousers")
	m.Values["inseam"] = decimal.RequireFromString("78")
	assert.NoError(t, m.Validate(ctx))

	m.Values["hip"] = decimal.RequireFromString("-1")
	err := m.Validate(ctx)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "values.hip", appErr.Details["field"])

	assert.Error(t, NewMeasurement(id.Nil, "trousers").Validate(ctx))
	assert.Error(t, NewMeasurement(id.New(), " ").Validate(ctx))
}

func TestMeasurement_CloneOwnsValues(t *testing.T) {
	m := NewMeasurement(id.New(), "shirt")
	m.Values["neck"] = decimal.RequireFromString("40")

	cp := m.Clone()
	cp.Values["neck"] = decimal.RequireFromString("41")
	assert.True(t, m.Values["neck"].Equal(decimal.RequireFromString("40")))
}
