package export

import (
	"bytes"
	"strconv"

	"github.com/atosab2b/catalog-export/internal/catalog"
	"github.com/xuri/excelize/v2"
)

// rowHeightPoints fits the 110px square image with a small margin.
const rowHeightPoints = 82.0

type exportRow struct {
	article catalog.Article
	price   float64
	image   []byte
}

func assembleWorkbook(rows []exportRow, headers headerSet, withImages bool, onRowWritten func()) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()
	sheetName := f.GetSheetName(0)

	// Header style: green background, white bold text, thin borders
	headerStyleID, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:  true,
			Color: "#FFFFFF",
			Size:  11,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#548235"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "#000000", Style: 1},
			{Type: "top", Color: "#000000", Style: 1},
			{Type: "bottom", Color: "#000000", Style: 1},
			{Type: "right", Color: "#000000", Style: 1},
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})

	dataStyleID, _ := f.NewStyle(&excelize.Style{
		Border: []excelize.Border{
			{Type: "left", Color: "#000000", Style: 1},
			{Type: "top", Color: "#000000", Style: 1},
			{Type: "bottom", Color: "#000000", Style: 1},
			{Type: "right", Color: "#000000", Style: 1},
		},
		Alignment: &excelize.Alignment{
			Vertical: "center",
		},
	})

	// Same as dataStyle plus two-decimal price format
	priceStyleID, _ := f.NewStyle(&excelize.Style{
		Border: []excelize.Border{
			{Type: "left", Color: "#000000", Style: 1},
			{Type: "top", Color: "#000000", Style: 1},
			{Type: "bottom", Color: "#000000", Style: 1},
			{Type: "right", Color: "#000000", Style: 1},
		},
		Alignment: &excelize.Alignment{
			Vertical: "center",
		},
		NumFmt: 2,
	})

	type header struct {
		col   string
		value string
	}
	columns := []header{
		{"A", headers.Codigo},
		{"B", headers.Descripcion},
		{"C", headers.Disponible},
		{"D", headers.EAN},
		{"E", headers.Precio},
		{"F", headers.UMV},
	}
	lastCol := "F"
	if withImages {
		columns = append(columns, header{"G", headers.Imagen})
		lastCol = "G"
	}

	colMaxWidth := make(map[string]float64)
	for _, h := range columns {
		f.SetCellValue(sheetName, h.col+"1", h.value)
		colMaxWidth[h.col] = float64(len([]rune(h.value)))
	}
	f.SetCellStyle(sheetName, "A1", lastCol+"1", headerStyleID)

	for i, r := range rows {
		rowNum := i + 2
		row := strconv.Itoa(rowNum)

		trackWidth := func(col, value string) {
			f.SetCellValue(sheetName, col+row, value)
			if w := float64(len([]rune(value))); w > colMaxWidth[col] {
				colMaxWidth[col] = w
			}
		}

		trackWidth("A", r.article.Codigo)
		trackWidth("B", r.article.Descripcion)
		trackWidth("D", r.article.EAN13)

		f.SetCellValue(sheetName, "C"+row, r.article.Disponible)
		f.SetCellValue(sheetName, "E"+row, r.price)
		f.SetCellValue(sheetName, "F"+row, r.article.UMV)

		f.SetCellStyle(sheetName, "A"+row, lastCol+row, dataStyleID)
		f.SetCellStyle(sheetName, "E"+row, "E"+row, priceStyleID)

		if withImages {
			f.SetRowHeight(sheetName, rowNum, rowHeightPoints)
			if r.image != nil {
				if err := f.AddPictureFromBytes(sheetName, "G"+row, &excelize.Picture{
					Extension: ".jpg",
					File:      r.image,
					Format: &excelize.GraphicOptions{
						OffsetX: 2,
						OffsetY: 2,
					},
				}); err != nil {
					return nil, err
				}
			}
		}

		if onRowWritten != nil {
			onRowWritten()
		}
	}

	// Auto-fit column widths with padding
	for col, maxW := range colMaxWidth {
		width := maxW*1.2 + 4
		if width < 8 {
			width = 8
		}
		if width > 60 {
			width = 60
		}
		f.SetColWidth(sheetName, col, col, width)
	}
	if withImages {
		// Fixed width sized to the embedded picture
		f.SetColWidth(sheetName, "G", "G", 16)
	}

	return f.WriteToBuffer()
}
