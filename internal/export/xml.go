package export

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"

	"github.com/ginjaninja78/position-grouper/internal/types"
)

// =============================================================================
// XML STRUCTURE
// =============================================================================
//
//   <?xml version="1.0" encoding="UTF-8"?>
//   <positions>
//     <position number="1" service="Ремонт" total-price="900.00" total-income="1000.00" total-expense="-100.00">
//       <item id="101" kind="income">
//         <UniqueKey>K-101</UniqueKey>
//         <PositionName>Перемотка</PositionName>
//         <Revenue>1000.00</Revenue>
//         ...
//       </item>
//     </position>
//   </positions>
//
// Numbers always use a dot separator. Empty fields are omitted.

// xmlIndent is the indentation unit.
const xmlIndent = "  "

// XMLElement represents a generic XML element.
type XMLElement struct {
	Name       string
	Attributes []xml.Attr
	Value      string
	Children   []XMLElement
}

// WriteXML writes positions as an XML document.
func WriteXML(w io.Writer, positions []types.Position, opts Options) error {
	if len(positions) == 0 {
		return ErrNothingToExport
	}

	root := XMLElement{Name: "positions"}
	for _, p := range positions {
		root.Children = append(root.Children, buildPositionElement(p))
	}

	var buffer bytes.Buffer
	buffer.WriteString(xml.Header)
	if err := writeElement(&buffer, root, 0); err != nil {
		return fmt.Errorf("failed to marshal XML: %w", err)
	}

	if _, err := w.Write(buffer.Bytes()); err != nil {
		return fmt.Errorf("failed to write XML: %w", err)
	}
	return nil
}

// buildPositionElement constructs a position element with its totals as
// attributes and one child per line-item.
func buildPositionElement(p types.Position) XMLElement {
	element := XMLElement{
		Name: "position",
		Attributes: []xml.Attr{
			attr("number", strconv.Itoa(p.Number)),
			attr("service", p.Service),
			attr("total-price", formatNumber(p.TotalPrice, ".")),
			attr("total-income", formatNumber(p.TotalIncome, ".")),
			attr("total-expense", formatNumber(p.TotalExpense, ".")),
		},
	}

	for _, item := range p.Items {
		element.Children = append(element.Children, buildItemElement(item))
	}
	return element
}

// buildItemElement constructs a line-item element.
func buildItemElement(item types.LineItem) XMLElement {
	element := XMLElement{
		Name: "item",
		Attributes: []xml.Attr{
			attr("id", item.ID),
			attr("kind", string(item.Kind)),
		},
	}

	add := func(name, value string) {
		if value != "" {
			element.Children = append(element.Children, XMLElement{Name: name, Value: value})
		}
	}

	add("UniqueKey", item.UniqueKey)
	add("PositionName", item.PositionName)
	add("Year", strconv.Itoa(item.Year))
	add("Month", strconv.Itoa(item.Month))
	add("Quarter", item.Quarter)
	add("Date", formatDate(item.Date))
	for i, a := range item.Analytics {
		add(fmt.Sprintf("Analytics%d", i+1), a)
	}
	add("DebitAccount", item.DebitAccount)
	add("CreditAccount", item.CreditAccount)
	add("Revenue", formatNumber(item.Revenue, "."))
	add("Quantity", strconv.Itoa(item.Quantity))
	add("SumWithoutVAT", formatNumber(item.SumWithoutVAT, "."))
	add("VATAmount", formatNumber(item.VATAmount, "."))
	add("WorkType", item.WorkType)
	add("SalaryGoods", item.SalaryGoods)
	if item.Source.Kind != types.SourceImport {
		add("Source", string(item.Source.Kind))
	}

	return element
}

func attr(name, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}

// writeElement writes an XML element to the buffer with indentation.
func writeElement(buffer *bytes.Buffer, element XMLElement, level int) error {
	writeIndent(buffer, level)

	buffer.WriteString("<")
	buffer.WriteString(element.Name)

	for _, a := range element.Attributes {
		buffer.WriteString(" ")
		buffer.WriteString(a.Name.Local)
		buffer.WriteString(`="`)
		if err := xml.EscapeText(buffer, []byte(a.Value)); err != nil {
			return err
		}
		buffer.WriteString(`"`)
	}

	if len(element.Children) == 0 && element.Value == "" {
		buffer.WriteString("/>\n")
		return nil
	}

	buffer.WriteString(">")

	if element.Value != "" {
		if err := xml.EscapeText(buffer, []byte(element.Value)); err != nil {
			return err
		}
	} else {
		buffer.WriteString("\n")
		for _, child := range element.Children {
			if err := writeElement(buffer, child, level+1); err != nil {
				return err
			}
		}
		writeIndent(buffer, level)
	}

	buffer.WriteString("</")
	buffer.WriteString(element.Name)
	buffer.WriteString(">\n")
	return nil
}

func writeIndent(buffer *bytes.Buffer, level int) {
	for i := 0; i < level; i++ {
		buffer.WriteString(xmlIndent)
	}
}
