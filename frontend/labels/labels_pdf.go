package labels

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"strings"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/jung-kurt/gofpdf"

	"pickstation/infrastructure/timeutil"
	"pickstation/models"
)

const (
	sheetMargin  = 10.0
	sheetRowH    = 24.0
	sheetHeaderH = 22.0
)

// RenderPickSheetPDF renders the open lines of a picklist, one row per line
// with a Code128 of the line barcode.
func RenderPickSheetPDF(picklist string, items []models.PickItem, printedAt time.Time) ([]byte, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("no lines to render")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Pick Sheet "+picklist, false)
	pdf.SetAutoPageBreak(false, 0)
	_, pageH := pdf.GetPageSize()

	y := 0.0
	page := 0
	for i, it := range items {
		if page == 0 || y+sheetRowH > pageH-sheetMargin {
			page++
			y = addSheetPage(pdf, picklist, printedAt, page)
		}
		if err := addSheetRow(pdf, it, i, y); err != nil {
			return nil, err
		}
		y += sheetRowH
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func addSheetPage(pdf *gofpdf.Fpdf, picklist string, printedAt time.Time, page int) float64 {
	pdf.AddPage()
	pageW, _ := pdf.GetPageSize()
	w := pageW - 2*sheetMargin

	pdf.SetTextColor(0, 0, 0)
	titleFont := fitFontSizeForWidth(pdf, "Helvetica", "B", 20, 11, "PICKLIST "+picklist, w-40)
	pdf.SetFont("Helvetica", "B", titleFont)
	pdf.SetXY(sheetMargin, sheetMargin)
	pdf.CellFormat(w-40, 10, "PICKLIST "+picklist, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(80, 80, 80)
	pdf.SetXY(sheetMargin+w-40, sheetMargin)
	pdf.CellFormat(40, 5, fmt.Sprintf("Page %d", page), "", 0, "R", false, 0, "")
	pdf.SetXY(sheetMargin+w-40, sheetMargin+5)
	pdf.CellFormat(40, 5, printedAt.In(timeutil.WIB).Format("02/01/2006 15:04"), "", 0, "R", false, 0, "")

	pdf.SetTextColor(0, 0, 0)
	pdf.SetLineWidth(0.35)
	pdf.Line(sheetMargin, sheetMargin+sheetHeaderH-4, sheetMargin+w, sheetMargin+sheetHeaderH-4)
	return sheetMargin + sheetHeaderH
}

func addSheetRow(pdf *gofpdf.Fpdf, it models.PickItem, index int, y float64) error {
	pageW, _ := pdf.GetPageSize()
	w := pageW - 2*sheetMargin
	textW := w * 0.55
	codeW := w - textW - 4

	name := strings.TrimSpace(it.ProductName)
	if name == "" {
		name = "-"
	}
	detail := strings.TrimSpace(strings.Join(nonEmpty(it.Variant, it.Brand), " | "))

	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetXY(sheetMargin, y+1)
	pdf.CellFormat(textW, 6, fmt.Sprintf("%d. SKU: %s", index+1, dash(it.SKU)), "", 0, "L", false, 0, "")

	nameFont := fitFontSizeForWidth(pdf, "Helvetica", "", 10, 6.5, name, textW)
	pdf.SetFont("Helvetica", "", nameFont)
	pdf.SetXY(sheetMargin, y+7)
	pdf.CellFormat(textW, 5, name, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(80, 80, 80)
	pdf.SetXY(sheetMargin, y+12)
	pdf.CellFormat(textW, 4, detail, "", 0, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(sheetMargin, y+16)
	pdf.CellFormat(textW, 6, "Ambil: "+it.Progress(), "", 0, "L", false, 0, "")

	barcodeValue := strings.TrimSpace(it.Barcode)
	if barcodeValue != "" {
		barcodePNG, err := renderCode128PNG(barcodeValue, 900, 180)
		if err != nil {
			return err
		}
		opt := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
		imageName := fmt.Sprintf("line-barcode-%d", index)
		pdf.RegisterImageOptionsReader(imageName, opt, bytes.NewReader(barcodePNG))
		pdf.ImageOptions(imageName, sheetMargin+textW+4, y+2, codeW, sheetRowH-10, false, opt, 0, "")
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetXY(sheetMargin+textW+4, y+sheetRowH-8)
		pdf.CellFormat(codeW, 4, barcodeValue, "", 0, "C", false, 0, "")
	}

	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(sheetMargin, y+sheetRowH-1, sheetMargin+w, y+sheetRowH-1)
	pdf.SetDrawColor(0, 0, 0)
	return nil
}

func fitFontSizeForWidth(pdf *gofpdf.Fpdf, family, style string, base, min float64, text string, maxWidth float64) float64 {
	if maxWidth <= 0 {
		return min
	}
	size := base
	pdf.SetFont(family, style, size)
	for size > min && pdf.GetStringWidth(text) > maxWidth {
		size -= 0.5
		pdf.SetFont(family, style, size)
	}
	return size
}

func renderCode128PNG(value string, width, height int) ([]byte, error) {
	code, err := code128.Encode(value)
	if err != nil {
		return nil, err
	}
	scaled, err := barcode.Scale(code, width, height)
	if err != nil {
		return nil, err
	}
	normalized := toNRGBA(scaled)
	var barcodePNG bytes.Buffer
	if err := png.Encode(&barcodePNG, normalized); err != nil {
		return nil, err
	}
	return barcodePNG.Bytes(), nil
}

func toNRGBA(src image.Image) *image.NRGBA {
	bounds := src.Bounds()
	dst := image.NewNRGBA(bounds)
	draw.Draw(dst, bounds, src, bounds.Min, draw.Src)
	return dst
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func dash(v string) string {
	if strings.TrimSpace(v) == "" {
		return "-"
	}
	return v
}
