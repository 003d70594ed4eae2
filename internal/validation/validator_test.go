package validation

import (
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/position-grouper/internal/grouping"
	"github.com/ginjaninja78/position-grouper/internal/positions"
	"github.com/ginjaninja78/position-grouper/internal/types"
)

func validItem(id string, kind types.Kind, revenue float64) types.LineItem {
	return types.LineItem{
		ID:            id,
		PositionName:  "Rewind_ID_" + id,
		Month:         3,
		Quantity:      1,
		Kind:          kind,
		Revenue:       revenue,
		SumWithoutVAT: revenue * 0.8,
		VATAmount:     revenue * 0.2,
	}
}

func TestValidateItems_Clean(t *testing.T) {
	items := []types.LineItem{
		validItem("a1", types.KindIncome, 100),
		validItem("b2", types.KindExpense, -40),
	}

	result := ValidateItems(items, []int{2, 3})

	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 2, result.ItemsValidated)
}

func TestValidateItems_Findings(t *testing.T) {
	dup := validItem("a1", types.KindIncome, 5)

	nan := validItem("c3", types.KindIncome, 0)
	nan.Revenue = math.NaN()

	positiveExpense := validItem("d4", types.KindExpense, 10)

	sloppy := validItem("e5", types.KindIncome, 100)
	sloppy.VATAmount = 5
	sloppy.Quantity = 0
	sloppy.Month = 13
	sloppy.PositionName = " "

	items := []types.LineItem{validItem("a1", types.KindIncome, 1), dup, nan, positiveExpense, sloppy}

	result := ValidateItems(items, []int{2, 3, 4, 5, 6})

	assert.False(t, result.IsValid)

	rules := map[string]int{}
	for _, e := range result.Errors {
		rules[e.Rule]++
	}
	assert.Equal(t, 1, rules["unique"])
	assert.Equal(t, 1, rules["finite"])
	assert.Equal(t, 1, rules["sign"])
	assert.Equal(t, 1, rules["components"])
	assert.Equal(t, 1, rules["min"])
	assert.Equal(t, 1, rules["range"])
	assert.Equal(t, 1, rules["required"])
	assert.Equal(t, 3, result.ErrorCount)
	assert.Equal(t, 4, result.WarningCount)

	for _, e := range result.Errors {
		if e.Rule == "unique" {
			assert.Equal(t, 3, e.RowNumber)
			assert.Contains(t, e.Error(), "first seen on row 2")
		}
	}
}

func TestValidateState(t *testing.T) {
	e := positions.NewEngine(zerolog.Nop())
	imported := []types.LineItem{
		validItem("a1", types.KindIncome, 100),
		validItem("b2", types.KindExpense, -40),
		validItem("c3", types.KindIncome, 10),
	}
	ids := []string{"a1", "b2", "c3"}

	s := positions.NewState(imported)
	s, _, err := e.CreatePositionFromGroup(s, grouping.Group(s.Pool, grouping.Base)[0])
	require.NoError(t, err)

	t.Run("consistent", func(t *testing.T) {
		result := ValidateState(s, ids)
		assert.True(t, result.IsValid, FormatErrors(result.Errors))
	})

	t.Run("stale totals", func(t *testing.T) {
		broken := s
		broken.Positions = append([]types.Position(nil), s.Positions...)
		broken.Positions[0].TotalPrice += 1

		result := ValidateState(broken, ids)
		assert.False(t, result.IsValid)
		assert.Equal(t, "rollup", result.Errors[0].Rule)
	})

	t.Run("duplicated item", func(t *testing.T) {
		broken := s
		broken.Pool = append(append([]types.LineItem(nil), s.Pool...), s.Positions[0].Items[0])

		result := ValidateState(broken, ids)
		assert.False(t, result.IsValid)
		assert.Equal(t, "ownership", result.Errors[0].Rule)
	})

	t.Run("lost item", func(t *testing.T) {
		result := ValidateState(s, append(ids, "zz"))
		assert.False(t, result.IsValid)
		assert.Equal(t, "conservation", result.Errors[0].Rule)
		assert.Equal(t, "zz", result.Errors[0].ItemID)
	})
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{in: "1500", want: 1500},
		{in: "1 500,50", want: 1500.5},
		{in: "1 500.25", want: 1500.25},
		{in: "-300", want: -300},
		{in: "", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "NaN", wantErr: true},
		{in: "Inf", wantErr: true},
		{in: "1e13", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, positions.ErrInvalidNumericInput)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestParseNumber(t *testing.T) {
	v, ok := ParseNumber("12 345,67 ₽")
	assert.True(t, ok)
	assert.InDelta(t, 12345.67, v, 1e-9)

	_, ok = ParseNumber("—")
	assert.False(t, ok)

	assert.Equal(t, 2024, ParseIntOrDefault("2024.0", 1))
	assert.Equal(t, 7, ParseIntOrDefault("", 7))
}
