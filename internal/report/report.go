package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"medcare-admin/internal/model"
	"medcare-admin/internal/pricing"

	"github.com/go-pdf/fpdf"
)

// Kinds of report
const (
	KindInventory = "inventory"
	KindOrders    = "orders"
	KindSuppliers = "suppliers"
)

// Kinds lists every report kind
var Kinds = []string{KindInventory, KindOrders, KindSuppliers}

type column struct {
	title string
	width float64
	align string
}

// Generator renders store data as PDF documents
type Generator struct {
	title string
	now   func() time.Time
}

// NewGenerator creates a new generator. title is printed in every page header.
func NewGenerator(title string) *Generator {
	return &Generator{title: title, now: time.Now}
}

// Filename returns the download name of a report generated now
func (g *Generator) Filename(kind string) string {
	return fmt.Sprintf("%s-report-%s.pdf", kind, g.now().Format("20060102"))
}

// Inventory renders every product with its stock, price and expiry. Products at
// or below lowStockThreshold are highlighted.
func (g *Generator) Inventory(w io.Writer, products []model.Product, lowStockThreshold int) error {
	doc := g.newDocument("Inventory Report")

	columns := []column{
		{"Product", 58, "L"},
		{"Category", 36, "L"},
		{"Qty", 14, "R"},
		{"Price", 20, "R"},
		{"Expiry", 22, "C"},
		{"Supplier", 40, "L"},
	}

	var value float64
	var low, hidden int
	rows := make([][]string, 0, len(products))
	highlight := make([]bool, 0, len(products))
	for _, p := range products {
		value += p.Price * float64(p.Quantity)
		if p.Quantity <= lowStockThreshold {
			low++
		}
		if !p.Visible {
			hidden++
		}
		rows = append(rows, []string{
			p.Name,
			p.Category,
			fmt.Sprintf("%d", p.Quantity),
			pricing.FormatPrice(p.Price),
			p.ExpiryDate.Format("2006-01-02"),
			p.SupplierName,
		})
		highlight = append(highlight, p.Quantity <= lowStockThreshold)
	}

	doc.summary([][2]string{
		{"Products", fmt.Sprintf("%d", len(products))},
		{"Hidden", fmt.Sprintf("%d", hidden)},
		{fmt.Sprintf("At or below %d units", lowStockThreshold), fmt.Sprintf("%d", low)},
		{"Stock value", pricing.FormatPrice(value)},
	})
	doc.table(columns, rows, highlight)
	return doc.output(w)
}

// Orders renders every order with its status and total, plus totals per status
func (g *Generator) Orders(w io.Writer, orders []model.Order) error {
	doc := g.newDocument("Orders Report")

	columns := []column{
		{"Order", 28, "L"},
		{"Date", 24, "C"},
		{"Customer", 46, "L"},
		{"Items", 14, "R"},
		{"Status", 26, "C"},
		{"Total", 26, "R"},
	}

	byStatus := map[model.OrderStatus]int{}
	var revenue float64
	rows := make([][]string, 0, len(orders))
	for _, o := range orders {
		byStatus[o.Status]++
		if o.Status == model.OrderStatusDelivered {
			revenue += o.TotalAmount
		}
		units := 0
		for _, item := range o.Items {
			units += item.Quantity
		}
		rows = append(rows, []string{
			shortID(o.ID),
			o.CreatedAt.Format("2006-01-02"),
			o.Shipping.FullName,
			fmt.Sprintf("%d", units),
			string(o.Status),
			pricing.FormatPrice(o.TotalAmount),
		})
	}

	statuses := make([]string, 0, len(byStatus))
	for status := range byStatus {
		statuses = append(statuses, string(status))
	}
	sort.Strings(statuses)

	summary := [][2]string{{"Orders", fmt.Sprintf("%d", len(orders))}}
	for _, status := range statuses {
		summary = append(summary, [2]string{status, fmt.Sprintf("%d", byStatus[model.OrderStatus(status)])})
	}
	summary = append(summary, [2]string{"Delivered revenue", pricing.FormatPrice(revenue)})

	doc.summary(summary)
	doc.table(columns, rows, nil)
	return doc.output(w)
}

// Suppliers renders every supplier followed by its catalog
func (g *Generator) Suppliers(w io.Writer, suppliers []model.Supplier) error {
	doc := g.newDocument("Suppliers Report")

	entries := 0
	for _, s := range suppliers {
		entries += len(s.Products)
	}
	doc.summary([][2]string{
		{"Suppliers", fmt.Sprintf("%d", len(suppliers))},
		{"Catalog entries", fmt.Sprintf("%d", entries)},
	})

	columns := []column{
		{"Product", 60, "L"},
		{"Category", 40, "L"},
		{"Buying", 26, "R"},
		{"Selling", 26, "R"},
		{"In stock", 20, "C"},
	}
	for _, s := range suppliers {
		doc.heading(fmt.Sprintf("%s (%s)", s.CompanyName, s.Name))
		doc.line(fmt.Sprintf("%s  %s  %s", s.Email, s.Phone, s.LicenseNumber))

		rows := make([][]string, 0, len(s.Products))
		for _, p := range s.Products {
			transferred := "no"
			if p.TransferredProductID != nil {
				transferred = "yes"
			}
			rows = append(rows, []string{
				p.Name,
				p.Category,
				pricing.FormatPrice(p.BuyingPrice),
				p.SellingPrice,
				transferred,
			})
		}
		if len(rows) == 0 {
			doc.line("No catalog entries.")
			continue
		}
		doc.table(columns, rows, nil)
	}
	return doc.output(w)
}

type document struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func (g *Generator) newDocument(subtitle string) *document {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("%s - %s", g.title, subtitle), true)
	pdf.SetCreator(g.title, true)
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AliasNbPages("")

	generated := g.now().Format("2006-01-02 15:04")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetHeaderFunc(func() {
		pdf.SetFont("Helvetica", "B", 14)
		pdf.CellFormat(0, 8, tr(g.title), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 6, tr(subtitle), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, "Generated "+generated, "", 1, "R", false, 0, "")
		pdf.Ln(4)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	return &document{pdf: pdf, tr: tr}
}

func (d *document) heading(text string) {
	d.pdf.Ln(3)
	d.pdf.SetFont("Helvetica", "B", 11)
	d.pdf.CellFormat(0, 7, d.tr(text), "", 1, "L", false, 0, "")
}

func (d *document) line(text string) {
	d.pdf.SetFont("Helvetica", "", 9)
	d.pdf.CellFormat(0, 5, d.tr(text), "", 1, "L", false, 0, "")
}

func (d *document) summary(pairs [][2]string) {
	d.pdf.SetFont("Helvetica", "", 10)
	for _, pair := range pairs {
		d.pdf.CellFormat(50, 6, d.tr(pair[0]), "", 0, "L", false, 0, "")
		d.pdf.CellFormat(0, 6, d.tr(pair[1]), "", 1, "L", false, 0, "")
	}
	d.pdf.Ln(3)
}

// table draws a header row and the rows, repeating the header after page breaks.
// Rows whose highlight flag is set are shaded.
func (d *document) table(columns []column, rows [][]string, highlight []bool) {
	header := func() {
		d.pdf.SetFont("Helvetica", "B", 9)
		d.pdf.SetFillColor(220, 230, 240)
		for _, col := range columns {
			d.pdf.CellFormat(col.width, 7, col.title, "1", 0, col.align, true, 0, "")
		}
		d.pdf.Ln(-1)
		d.pdf.SetFont("Helvetica", "", 8)
	}

	header()
	_, pageHeight := d.pdf.GetPageSize()
	_, _, _, bottom := d.pdf.GetMargins()
	d.pdf.SetFillColor(255, 228, 225)
	for i, row := range rows {
		if d.pdf.GetY()+6 > pageHeight-bottom {
			d.pdf.AddPage()
			header()
			d.pdf.SetFillColor(255, 228, 225)
		}
		fill := i < len(highlight) && highlight[i]
		for j, col := range columns {
			text := ""
			if j < len(row) {
				text = d.fit(row[j], col.width)
			}
			d.pdf.CellFormat(col.width, 6, text, "1", 0, col.align, fill, 0, "")
		}
		d.pdf.Ln(-1)
	}
	if len(rows) == 0 {
		total := 0.0
		for _, col := range columns {
			total += col.width
		}
		d.pdf.CellFormat(total, 6, "No data", "1", 1, "C", false, 0, "")
	}
}

// fit truncates text so it fits a cell of the given width
func (d *document) fit(text string, width float64) string {
	text = d.tr(text)
	limit := width - 2
	if d.pdf.GetStringWidth(text) <= limit {
		return text
	}
	// translated text is single-byte
	b := []byte(text)
	for len(b) > 0 && d.pdf.GetStringWidth(string(b)+"...") > limit {
		b = b[:len(b)-1]
	}
	return string(b) + "..."
}

func (d *document) output(w io.Writer) error {
	if err := d.pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render pdf: %w", err)
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
