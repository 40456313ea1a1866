package crm

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/palmgate/leadgen-cli/internal/model"
)

var xlsxHeader = []string{
	"Identity Key", "Source", "Name", "Phone", "Email", "Budget",
	"Area", "Property Type", "Bedrooms", "Listing URL", "Score", "Verification",
}

// XLSXSink appends leads to a local spreadsheet, one row per identity key.
// The workbook is loaded on first use and saved after every upsert so a
// crashed run leaves the rows already synced on disk.
type XLSXSink struct {
	path  string
	sheet string

	mu   sync.Mutex
	file *xlsx.File
}

// NewXLSXSink creates the sink.
func NewXLSXSink(path, sheet string) *XLSXSink {
	if sheet == "" {
		sheet = "Leads"
	}
	return &XLSXSink{path: path, sheet: sheet}
}

func (s *XLSXSink) Name() string { return "xlsx" }

func (s *XLSXSink) Upsert(_ context.Context, lead model.Lead) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sheet, err := s.openSheet()
	if err != nil {
		return "", err
	}

	values := []string{
		lead.IdentityKey,
		lead.Source,
		lead.Attr(model.AttrName),
		lead.Attr(model.AttrPhone),
		lead.Attr(model.AttrEmail),
		lead.Attr(model.AttrBudget),
		lead.Attr(model.AttrArea),
		lead.Attr(model.AttrPropertyType),
		lead.Attr(model.AttrBedrooms),
		lead.Attr(model.AttrListingURL),
		scoreString(lead),
		string(lead.Verification),
	}

	rowIdx := s.findRow(sheet, lead.IdentityKey)
	var row *xlsx.Row
	if rowIdx >= 0 {
		row = sheet.Rows[rowIdx]
	} else {
		row = sheet.AddRow()
		rowIdx = len(sheet.Rows) - 1
	}
	setRow(row, values)

	if err := s.file.Save(s.path); err != nil {
		return "", eris.Wrap(err, "xlsx sink: save workbook")
	}
	return fmt.Sprintf("%s!%s:%d", s.path, s.sheet, rowIdx+1), nil
}

// openSheet loads the workbook from disk on first use, creating it with a
// header row when the file does not exist yet.
func (s *XLSXSink) openSheet() (*xlsx.Sheet, error) {
	if s.file == nil {
		if _, err := os.Stat(s.path); err == nil {
			f, err := xlsx.OpenFile(s.path)
			if err != nil {
				return nil, eris.Wrap(err, "xlsx sink: open workbook")
			}
			s.file = f
		} else {
			s.file = xlsx.NewFile()
		}
	}

	if sheet, ok := s.file.Sheet[s.sheet]; ok {
		return sheet, nil
	}
	sheet, err := s.file.AddSheet(s.sheet)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx sink: add sheet")
	}
	setRow(sheet.AddRow(), xlsxHeader)
	return sheet, nil
}

// findRow returns the index of the row whose first cell equals key, or -1.
// Row 0 is the header and is never matched.
func (s *XLSXSink) findRow(sheet *xlsx.Sheet, key string) int {
	for i := 1; i < len(sheet.Rows); i++ {
		cells := sheet.Rows[i].Cells
		if len(cells) > 0 && cells[0].String() == key {
			return i
		}
	}
	return -1
}

func setRow(row *xlsx.Row, values []string) {
	for len(row.Cells) < len(values) {
		row.AddCell()
	}
	for i, v := range values {
		row.Cells[i].Value = v
	}
}
