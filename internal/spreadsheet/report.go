package spreadsheet

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/extension"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	companydomain "github.com/smallbiznis/shipdesk/internal/company/domain"
	"github.com/smallbiznis/shipdesk/internal/imaging"
	orderdomain "github.com/smallbiznis/shipdesk/internal/order/domain"
)

// OrdersReport renders a landscape PDF listing orders under the company header.
func OrdersReport(company companydomain.CompanyInfo, orders []orderdomain.Order, generatedAt time.Time) ([]byte, error) {
	cfg := config.NewBuilder().
		WithOrientation(orientation.Horizontal).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()
	m := maroto.New(cfg)

	m.AddRow(24, headerCols(company)...)
	m.AddRow(10,
		text.NewCol(8, "Orders report", props.Text{Size: 14, Style: fontstyle.Bold}),
		text.NewCol(4, "Generated "+generatedAt.UTC().Format("2006-01-02 15:04"), props.Text{Size: 8, Align: align.Right, Top: 3}),
	)

	heading := props.Text{Size: 8, Style: fontstyle.Bold}
	m.AddRow(8,
		text.NewCol(2, "Number", heading),
		text.NewCol(2, "Date", heading),
		text.NewCol(3, "Client", heading),
		text.NewCol(2, "City", heading),
		text.NewCol(1, "Status", heading),
		text.NewCol(2, "Total", props.Text{Size: 8, Style: fontstyle.Bold, Align: align.Right}),
	)
	m.AddRow(2, line.NewCol(12))

	cell := props.Text{Size: 8}
	totals := map[string]decimal.Decimal{}
	for _, o := range orders {
		m.AddRow(7,
			text.NewCol(2, o.OrderNumber, cell),
			text.NewCol(2, o.CreatedAt.UTC().Format("2006-01-02"), cell),
			text.NewCol(3, o.ClientName+" "+o.ClientPhone, cell),
			text.NewCol(2, o.CityName, cell),
			text.NewCol(1, strings.ReplaceAll(string(o.Status), "_", " "), cell),
			text.NewCol(2, o.Total.StringFixed(2)+" "+o.CurrencyCode, props.Text{Size: 8, Align: align.Right}),
		)
		if o.Status != orderdomain.StatusCancelled && o.Status != orderdomain.StatusReturned {
			totals[o.CurrencyCode] = totals[o.CurrencyCode].Add(o.Total)
		}
	}

	m.AddRow(2, line.NewCol(12))
	m.AddRow(8,
		col.New(6),
		text.NewCol(4, fmt.Sprintf("%d orders", len(orders)), props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}),
		col.New(2),
	)
	for _, code := range slices.Sorted(maps.Keys(totals)) {
		sum := totals[code]
		m.AddRow(7,
			col.New(6),
			text.NewCol(4, "Total "+code, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, sum.StringFixed(2), props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}),
		)
	}
	if company.FooterNote != "" {
		m.AddRow(12, text.NewCol(12, company.FooterNote, props.Text{Size: 8, Top: 4, Style: fontstyle.Italic}))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}

func headerCols(company companydomain.CompanyInfo) []core.Col {
	details := col.New(9).Add(
		text.New(company.Name, props.Text{Size: 13, Style: fontstyle.Bold}),
		text.New(strings.TrimSpace(company.Address+" "+company.City+" "+company.Country), props.Text{Size: 8, Top: 7}),
		text.New(strings.TrimSpace(company.Phone+"  "+company.Email), props.Text{Size: 8, Top: 11}),
	)
	if company.TaxNumber != "" {
		details.Add(text.New("Tax number: "+company.TaxNumber, props.Text{Size: 8, Top: 15}))
	}

	if mime, data, err := imaging.DecodeDataURI(company.Logo); err == nil && len(data) > 0 {
		ext := extension.Png
		if mime == "image/jpeg" {
			ext = extension.Jpg
		}
		return []core.Col{image.NewFromBytesCol(3, data, ext, props.Rect{Percent: 90}), details}
	}
	return []core.Col{col.New(3), details}
}
