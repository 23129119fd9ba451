// Package export writes listings out as spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/isdelr/ecofinds/internal/models"
	"github.com/tealeg/xlsx"
)

// ContentType is the MIME type of an xlsx workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var listingHeaders = []string{"ID", "Title", "Category", "Price", "Description", "Image", "CreatedAt"}

// WriteListings writes products to w as a single-sheet workbook.
func WriteListings(w io.Writer, products []models.Product) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Listings")
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	headerRow := sheet.AddRow()
	for _, h := range listingHeaders {
		headerRow.AddCell().SetValue(h)
	}

	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetValue(p.ID)
		row.AddCell().SetValue(p.Title)
		row.AddCell().SetValue(p.Category)
		row.AddCell().SetFloatWithFormat(p.Price.InexactFloat64(), "0.00")
		row.AddCell().SetValue(p.Description)
		row.AddCell().SetValue(p.ImageURL)
		row.AddCell().SetValue(p.CreatedAt.Format("2006-01-02 15:04:05"))
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
