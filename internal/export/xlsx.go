package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/ghostbiz/internal/model"
)

const sheetName = "businesses"

// WriteXLSX writes records to a single-sheet workbook. Coordinates are
// numeric cells; everything else is text.
func WriteXLSX(path string, records []model.BusinessRecord) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, c := range Columns {
		header.AddCell().SetString(c)
	}

	for _, r := range records {
		row := sheet.AddRow()
		for i, v := range Row(r) {
			cell := row.AddCell()
			switch Columns[i] {
			case "lat":
				cell.SetFloat(r.Lat)
			case "lon":
				cell.SetFloat(r.Lon)
			default:
				cell.SetString(v)
			}
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}
