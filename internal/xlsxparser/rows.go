// =============================================================================
// Position Grouper - Row Mapping
// =============================================================================
//
// RowMapper turns one tabular row (cells as strings) into a LineItem using
// the configured column letters. It is shared by the XLSX and CSV importers.
//
// NORMALIZATION:
//   - Numbers are parsed leniently (currency signs, spaces, comma decimals).
//   - Quantity defaults to 1; year and month default to the current date.
//   - Excel serial dates become DD.MM.YYYY; text dates are kept.
//   - The income/expense cell is matched against two tokens; anything else
//     is income.
//   - Expense amounts are stored non-positive.
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/position-grouper/internal/config"
	"github.com/ginjaninja78/position-grouper/internal/types"
	"github.com/ginjaninja78/position-grouper/internal/validation"
)

// DateLayout is the display format of imported and exported dates.
const DateLayout = "02.01.2006"

// RowMapper maps rows to line-items.
type RowMapper struct {
	settings config.ImportSettings
	idx      columnIndex
	now      func() time.Time
}

// columnIndex holds zero-based column positions.
type columnIndex struct {
	id, uniqueKey, positionName, year, month, quarter, date int
	analytics                                                [8]int
	debit, credit, revenue, quantity, sumWithoutVAT, vat     int
	workType, incomeExpense, salaryGoods                     int
}

// columnRef binds a configured letter to an index field.
type columnRef struct {
	name   string
	letter string
	target *int
}

// NewRowMapper resolves the column letters of settings.
func NewRowMapper(settings config.ImportSettings) (*RowMapper, error) {
	c := settings.Columns

	var idx columnIndex
	var refs []columnRef
	add := func(name, letter string, target *int) {
		refs = append(refs, columnRef{name: name, letter: letter, target: target})
	}

	add("id", c.ID, &idx.id)
	add("unique_key", c.UniqueKey, &idx.uniqueKey)
	add("position_name", c.PositionName, &idx.positionName)
	add("year", c.Year, &idx.year)
	add("month", c.Month, &idx.month)
	add("quarter", c.Quarter, &idx.quarter)
	add("date", c.Date, &idx.date)
	analytics := []string{c.Analytics1, c.Analytics2, c.Analytics3, c.Analytics4,
		c.Analytics5, c.Analytics6, c.Analytics7, c.Analytics8}
	for i, letter := range analytics {
		add(fmt.Sprintf("analytics%d", i+1), letter, &idx.analytics[i])
	}
	add("debit_account", c.DebitAccount, &idx.debit)
	add("credit_account", c.CreditAccount, &idx.credit)
	add("revenue", c.Revenue, &idx.revenue)
	add("quantity", c.Quantity, &idx.quantity)
	add("sum_without_vat", c.SumWithoutVAT, &idx.sumWithoutVAT)
	add("vat_amount", c.VATAmount, &idx.vat)
	add("work_type", c.WorkType, &idx.workType)
	add("income_expense", c.IncomeExpense, &idx.incomeExpense)
	add("salary_goods", c.SalaryGoods, &idx.salaryGoods)

	for _, l := range refs {
		n, err := excelize.ColumnNameToNumber(strings.TrimSpace(l.letter))
		if err != nil {
			return nil, fmt.Errorf("invalid column for %s: %w", l.name, err)
		}
		*l.target = n - 1
	}

	return &RowMapper{settings: settings, idx: idx, now: time.Now}, nil
}

// Map converts a row. It returns false for rows without an id when
// KeepRowsWithoutID is off. rowNumber is 1-based and only used for
// generated ids.
func (m *RowMapper) Map(row []string, rowNumber int) (types.LineItem, bool) {
	getCell := func(index int) string {
		if index < len(row) {
			return strings.TrimSpace(row[index])
		}
		return ""
	}

	id := getCell(m.idx.id)
	if id == "" {
		if !m.settings.KeepRowsWithoutID {
			return types.LineItem{}, false
		}
		id = fmt.Sprintf("imported-%d", rowNumber)
	}

	now := m.now()
	item := types.LineItem{
		ID:            id,
		UniqueKey:     getCell(m.idx.uniqueKey),
		PositionName:  getCell(m.idx.positionName),
		Year:          validation.ParseIntOrDefault(getCell(m.idx.year), now.Year()),
		Month:         validation.ParseIntOrDefault(getCell(m.idx.month), int(now.Month())),
		Quarter:       getCell(m.idx.quarter),
		Date:          normalizeDate(getCell(m.idx.date)),
		DebitAccount:  getCell(m.idx.debit),
		CreditAccount: getCell(m.idx.credit),
		Revenue:       parseAmount(getCell(m.idx.revenue)),
		Quantity:      validation.ParseIntOrDefault(getCell(m.idx.quantity), 1),
		SumWithoutVAT: parseAmount(getCell(m.idx.sumWithoutVAT)),
		VATAmount:     parseAmount(getCell(m.idx.vat)),
		WorkType:      getCell(m.idx.workType),
		SalaryGoods:   getCell(m.idx.salaryGoods),
		Kind: types.ParseKind(getCell(m.idx.incomeExpense),
			m.settings.IncomeToken, m.settings.ExpenseToken),
	}
	for i, col := range m.idx.analytics {
		item.Analytics[i] = getCell(col)
	}

	if item.Quantity < 1 {
		item.Quantity = 1
	}

	if item.Kind.IsExpense() {
		item.Revenue = -math.Abs(item.Revenue)
		item.SumWithoutVAT = -math.Abs(item.SumWithoutVAT)
		item.VATAmount = -math.Abs(item.VATAmount)
	}

	return item, true
}

func parseAmount(s string) float64 {
	v, _ := validation.ParseNumber(s)
	return v
}

// normalizeDate converts an Excel serial to DD.MM.YYYY and keeps any other
// text as is.
func normalizeDate(s string) string {
	serial, err := strconv.ParseFloat(s, 64)
	if err != nil || serial <= 0 {
		return s
	}

	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return s
	}
	return t.Format(DateLayout)
}

// isRowEmpty checks if a row contains only empty cells.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
