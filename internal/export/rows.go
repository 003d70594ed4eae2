package export

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/position-grouper/internal/types"
)

// dateLayout is the exported date format.
const dateLayout = "02.01.2006"

// Headers are the column titles of the flat row model.
var Headers = []string{
	"ID", "Уникальный ключ", "Позиция", "Год", "Месяц", "Квартал", "Дата",
	"Аналитика 1", "Аналитика 2", "Аналитика 3", "Аналитика 4",
	"Аналитика 5", "Аналитика 6", "Аналитика 7", "Аналитика 8",
	"Счет Дт", "Счет Кт", "Выручка", "Количество", "Сумма без НДС", "НДС",
	"Вид работ", "Доходы/Расходы", "Зарплата/Товары", "Услуга", "Номер позиции",
}

// Row is one exported line-item with its position context.
type Row struct {
	Item     types.LineItem
	Service  string
	Position int
}

// Flatten returns one row per line-item, in position order then item order.
func Flatten(positions []types.Position) []Row {
	var rows []Row
	for _, p := range positions {
		for _, item := range p.Items {
			rows = append(rows, Row{Item: item, Service: p.Service, Position: p.Number})
		}
	}
	return rows
}

// Values returns the row as typed cell values: strings, ints and
// float64 amounts. XLSX writes them as is; CSV formats them.
func (r Row) Values(opts Options) []interface{} {
	item := r.Item
	values := []interface{}{
		item.ID, item.UniqueKey, item.PositionName,
		item.Year, item.Month, item.Quarter, formatDate(item.Date),
	}
	for _, a := range item.Analytics {
		values = append(values, a)
	}
	return append(values,
		item.DebitAccount, item.CreditAccount,
		item.Revenue, item.Quantity, item.SumWithoutVAT, item.VATAmount,
		item.WorkType, opts.kindToken(item.Kind), item.SalaryGoods,
		r.Service, r.Position,
	)
}

// Strings returns the row formatted for text output.
func (r Row) Strings(opts Options) []string {
	values := r.Values(opts)
	out := make([]string, len(values))
	for i, v := range values {
		switch x := v.(type) {
		case float64:
			out[i] = formatNumber(x, opts.DecimalSeparator)
		case int:
			out[i] = strconv.Itoa(x)
		case string:
			out[i] = x
		}
	}
	return out
}

// formatNumber renders an amount with two decimals and the given separator.
func formatNumber(v float64, sep string) string {
	s := decimal.NewFromFloat(v).StringFixed(2)
	if sep != "" && sep != "." {
		s = strings.Replace(s, ".", sep, 1)
	}
	return s
}

// formatDate converts ISO dates (YYYY-MM-DD) and Excel serials to
// DD.MM.YYYY. Anything else is written unchanged.
func formatDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}

	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.Format(dateLayout)
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return t.Format(dateLayout)
		}
	}

	return s
}
