package xlsxparser

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/position-grouper/internal/config"
	"github.com/ginjaninja78/position-grouper/internal/types"
)

func testSettings() config.ImportSettings {
	return config.ImportSettings{
		HeaderRows:   1,
		IncomeToken:  "Доходы",
		ExpenseToken: "Расходы",
		Columns:      config.DefaultColumnMapping(),
	}
}

func row(id, name string, revenue float64, kind string) []interface{} {
	return []interface{}{
		id, "K-" + id, name, 2024, 3, "1 кв.", 45366,
		"a1", "a2", "a3", "a4", "a5", "a6", "a7", "АИР-80",
		"20.01", "90.01", revenue, 2, revenue * 0.8, revenue * 0.2,
		"Ремонт", kind, "Товары",
	}
}

func buildWorkbook(t *testing.T, rows ...[]interface{}) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	header := []interface{}{"ID", "Ключ", "Позиция"}
	require.NoError(t, f.SetSheetRow(sheet, "A1", &header))

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		r := r
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestParseReader(t *testing.T) {
	buf := buildWorkbook(t,
		row("101", "Перемотка_ID_3fa2", 1500.5, "Доходы"),
		[]interface{}{},
		row("", "Без id", 10, "Доходы"),
		row("102", "Подшипник", 300, "Расходы"),
		row("103", "Прочее", 50, "Неизвестно"),
	)

	data, err := ParseReader(buf, testSettings())
	require.NoError(t, err)

	require.Len(t, data.Items, 3)
	assert.Equal(t, []string{"101", "102", "103"}, data.IDs())
	assert.Equal(t, []int{2, 5, 6}, data.RowNumbers)
	assert.Equal(t, 2, data.SkippedRows)
	assert.Equal(t, "Sheet1", data.SheetName)

	first := data.Items[0]
	assert.Equal(t, "K-101", first.UniqueKey)
	assert.Equal(t, "Перемотка_ID_3fa2", first.PositionName)
	assert.Equal(t, 2024, first.Year)
	assert.Equal(t, 3, first.Month)
	assert.Equal(t, "1 кв.", first.Quarter)
	assert.Equal(t, "15.03.2024", first.Date)
	assert.Equal(t, "АИР-80", first.Analytics8())
	assert.Equal(t, "20.01", first.DebitAccount)
	assert.InDelta(t, 1500.5, first.Revenue, 1e-9)
	assert.Equal(t, 2, first.Quantity)
	assert.InDelta(t, 1200.4, first.SumWithoutVAT, 1e-9)
	assert.Equal(t, "Ремонт", first.WorkType)
	assert.Equal(t, "Товары", first.SalaryGoods)
	assert.Equal(t, types.KindIncome, first.Kind)

	expense := data.Items[1]
	assert.Equal(t, types.KindExpense, expense.Kind)
	assert.InDelta(t, -300.0, expense.Revenue, 1e-9, "expense stored negative")
	assert.InDelta(t, -240.0, expense.SumWithoutVAT, 1e-9)
	assert.InDelta(t, -60.0, expense.VATAmount, 1e-9)

	assert.Equal(t, types.KindIncome, data.Items[2].Kind, "unknown token imports as income")
}

func TestParseReader_KeepRowsWithoutID(t *testing.T) {
	settings := testSettings()
	settings.KeepRowsWithoutID = true

	data, err := ParseReader(buildWorkbook(t, row("", "Без id", 10, "Доходы")), settings)
	require.NoError(t, err)
	require.Len(t, data.Items, 1)
	assert.Equal(t, "imported-2", data.Items[0].ID)
}

func TestParseReader_NoDataRows(t *testing.T) {
	_, err := ParseReader(buildWorkbook(t), testSettings())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no data rows")
}

func TestParse_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "import.xlsx")

	f := excelize.NewFile()
	header := []interface{}{"ID"}
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &header))
	r := row("7", "Вал", 10, "Доходы")
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &r))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	data, err := Parse(path, testSettings())
	require.NoError(t, err)
	assert.Equal(t, path, data.FilePath)
	assert.Len(t, data.Items, 1)

	_, err = Parse(filepath.Join(t.TempDir(), "missing.xlsx"), testSettings())
	assert.Error(t, err)
}

func TestRowMapper_Defaults(t *testing.T) {
	m, err := NewRowMapper(testSettings())
	require.NoError(t, err)
	m.now = func() time.Time { return time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC) }

	item, ok := m.Map([]string{"9", "", "Вал", "", "", "", "12.03.2024"}, 2)
	require.True(t, ok)

	assert.Equal(t, 2025, item.Year)
	assert.Equal(t, 7, item.Month)
	assert.Equal(t, 1, item.Quantity)
	assert.Equal(t, "12.03.2024", item.Date, "text dates are kept")
	assert.Zero(t, item.Revenue)
	assert.Equal(t, types.KindIncome, item.Kind)
}

func TestNewRowMapper_InvalidColumn(t *testing.T) {
	settings := testSettings()
	settings.Columns.Revenue = "1A"

	_, err := NewRowMapper(settings)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "revenue")
}
