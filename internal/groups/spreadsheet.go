package groups

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Spreadsheet layout for both tables: header in row 1, data from row 2.
// grupos: A=grupo, B=codigo. orden: A=orden, B=codigo.

func parseGruposSpreadsheet(file io.Reader) ([]GroupRow, error) {
	rows, err := readFirstSheet(file)
	if err != nil {
		return nil, err
	}

	var result []GroupRow
	for rowIdx := 1; rowIdx < len(rows); rowIdx++ {
		row := rows[rowIdx]
		grupo := cellValue(row, 0)
		codigo := cellValue(row, 1)
		if grupo == "" || codigo == "" {
			continue
		}
		result = append(result, GroupRow{Grupo: grupo, Codigo: codigo})
	}
	return result, nil
}

func parseOrdenSpreadsheet(file io.Reader) ([]OrderRow, error) {
	rows, err := readFirstSheet(file)
	if err != nil {
		return nil, err
	}

	var result []OrderRow
	for rowIdx := 1; rowIdx < len(rows); rowIdx++ {
		row := rows[rowIdx]
		ordenStr := cellValue(row, 0)
		codigo := cellValue(row, 1)
		if ordenStr == "" || codigo == "" {
			continue
		}

		orden, err := strconv.Atoi(ordenStr)
		if err != nil {
			return nil, fmt.Errorf("fila %d: orden inválido %q", rowIdx+1, ordenStr)
		}
		result = append(result, OrderRow{Orden: orden, Codigo: codigo})
	}
	return result, nil
}

func readFirstSheet(file io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("spreadsheet has no sheets")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return rows, nil
}

func cellValue(row []string, col int) string {
	if col < len(row) {
		return strings.TrimSpace(row[col])
	}
	return ""
}

func writeGruposSpreadsheet(path string, rows []GroupRow) error {
	f := excelize.NewFile()
	sheetName := f.GetSheetName(0)

	f.SetCellValue(sheetName, "A1", "grupo")
	f.SetCellValue(sheetName, "B1", "codigo")
	for i, row := range rows {
		cell := strconv.Itoa(i + 2)
		f.SetCellValue(sheetName, "A"+cell, row.Grupo)
		f.SetCellValue(sheetName, "B"+cell, row.Codigo)
	}

	return f.SaveAs(path)
}

func writeOrdenSpreadsheet(path string, rows []OrderRow) error {
	f := excelize.NewFile()
	sheetName := f.GetSheetName(0)

	f.SetCellValue(sheetName, "A1", "orden")
	f.SetCellValue(sheetName, "B1", "codigo")
	for i, row := range rows {
		cell := strconv.Itoa(i + 2)
		f.SetCellValue(sheetName, "A"+cell, row.Orden)
		f.SetCellValue(sheetName, "B"+cell, row.Codigo)
	}

	return f.SaveAs(path)
}
