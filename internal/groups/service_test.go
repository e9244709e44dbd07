package groups

import (
	"bytes"
	"context"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func buildSpreadsheet(t *testing.T, headerA, headerB string, rows [][2]string) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	f.SetCellValue(sheet, "A1", headerA)
	f.SetCellValue(sheet, "B1", headerB)
	for i, row := range rows {
		cell := strconv.Itoa(i + 2)
		f.SetCellValue(sheet, "A"+cell, row[0])
		f.SetCellValue(sheet, "B"+cell, row[1])
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("failed to build spreadsheet: %v", err)
	}
	return buf
}

func TestService_ListGroupsDeduplicates(t *testing.T) {
	repo := NewMemoryRepository([]GroupRow{
		{Grupo: "Verano", Codigo: "A1"},
		{Grupo: "Verano", Codigo: "A2"},
		{Grupo: "Invierno", Codigo: "B1"},
	}, nil)
	service := NewService(repo, zap.NewNop())

	names, apiErr := service.ListGroups(context.Background())
	if apiErr != nil {
		t.Fatalf("ListGroups failed: %v", apiErr)
	}
	if len(names) != 2 || names[0] != "Verano" || names[1] != "Invierno" {
		t.Errorf("names = %v, want [Verano Invierno]", names)
	}
}

func TestService_ResolveTrimsAndDropsEmptyCodes(t *testing.T) {
	repo := NewMemoryRepository([]GroupRow{
		{Grupo: "Verano", Codigo: " A1 "},
		{Grupo: "Verano", Codigo: "  "},
		{Grupo: "Verano", Codigo: "A2"},
		{Grupo: "Invierno", Codigo: "B1"},
	}, nil)
	service := NewService(repo, zap.NewNop())

	codes, err := service.Resolve(context.Background(), "Verano")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(codes) != 2 || codes[0] != "A1" || codes[1] != "A2" {
		t.Errorf("codes = %v, want [A1 A2]", codes)
	}

	codes, err = service.Resolve(context.Background(), "Inexistente")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(codes) != 0 {
		t.Errorf("unknown group must resolve to nothing, got %v", codes)
	}
}

func TestService_OrderRanksReturnsIndependentCopy(t *testing.T) {
	repo := NewMemoryRepository(nil, []OrderRow{
		{Orden: 1, Codigo: "A1 "},
		{Orden: 2, Codigo: "A2"},
	})
	service := NewService(repo, zap.NewNop())

	ranks, err := service.OrderRanks(context.Background())
	if err != nil {
		t.Fatalf("OrderRanks failed: %v", err)
	}
	if ranks["A1"] != 1 || ranks["A2"] != 2 {
		t.Errorf("ranks = %v", ranks)
	}

	// A job snapshots its ranks; a later replace must not leak in.
	ranks["A1"] = 99
	again, err := service.OrderRanks(context.Background())
	if err != nil {
		t.Fatalf("OrderRanks failed: %v", err)
	}
	if again["A1"] != 1 {
		t.Error("OrderRanks must return a fresh map per call")
	}
}

func TestService_ReplaceGroupsFromSpreadsheet(t *testing.T) {
	repo := NewMemoryRepository([]GroupRow{{Grupo: "Viejo", Codigo: "X1"}}, nil)
	service := NewService(repo, zap.NewNop())

	sheet := buildSpreadsheet(t, "grupo", "codigo", [][2]string{
		{"Verano", "A1"},
		{"Verano", "A2"},
		{"", "dropped"}, // incomplete rows are skipped
		{"Invierno", "B1"},
	})

	n, apiErr := service.ReplaceGroupsFromSpreadsheet(context.Background(), sheet)
	if apiErr != nil {
		t.Fatalf("replace failed: %v", apiErr)
	}
	if n != 3 {
		t.Errorf("replaced %d rows, want 3", n)
	}

	codes, _ := service.Resolve(context.Background(), "Viejo")
	if len(codes) != 0 {
		t.Error("replace must drop the previous table")
	}
	codes, _ = service.Resolve(context.Background(), "Verano")
	if len(codes) != 2 {
		t.Errorf("Verano codes = %v, want 2 rows", codes)
	}
}

func TestService_ReplaceGroupsRejectsEmptySheet(t *testing.T) {
	service := NewService(NewMemoryRepository(nil, nil), zap.NewNop())

	sheet := buildSpreadsheet(t, "grupo", "codigo", nil)
	if _, apiErr := service.ReplaceGroupsFromSpreadsheet(context.Background(), sheet); apiErr == nil {
		t.Error("empty sheet must be rejected")
	}

	if _, apiErr := service.ReplaceGroupsFromSpreadsheet(context.Background(), bytes.NewBufferString("not a workbook")); apiErr == nil {
		t.Error("garbage upload must be rejected")
	}
}

func TestService_ReplaceOrderFromSpreadsheet(t *testing.T) {
	service := NewService(NewMemoryRepository(nil, nil), zap.NewNop())

	sheet := buildSpreadsheet(t, "orden", "codigo", [][2]string{
		{"2", "A2"},
		{"1", "A1"},
	})
	n, apiErr := service.ReplaceOrderFromSpreadsheet(context.Background(), sheet)
	if apiErr != nil {
		t.Fatalf("replace failed: %v", apiErr)
	}
	if n != 2 {
		t.Errorf("replaced %d rows, want 2", n)
	}

	ranks, _ := service.OrderRanks(context.Background())
	if ranks["A1"] != 1 || ranks["A2"] != 2 {
		t.Errorf("ranks = %v", ranks)
	}

	bad := buildSpreadsheet(t, "orden", "codigo", [][2]string{{"tres", "A3"}})
	if _, apiErr := service.ReplaceOrderFromSpreadsheet(context.Background(), bad); apiErr == nil {
		t.Error("non-numeric order must be rejected")
	}
}

func TestService_BackupTablesRoundTrips(t *testing.T) {
	repo := NewMemoryRepository(
		[]GroupRow{{Grupo: "Verano", Codigo: "A1"}},
		[]OrderRow{{Orden: 1, Codigo: "A1"}},
	)
	service := NewService(repo, zap.NewNop())

	dir := t.TempDir()
	paths, err := service.BackupTables(context.Background(), filepath.Join(dir, "backups"))
	if err != nil {
		t.Fatalf("BackupTables failed: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("wrote %d files, want 2", len(paths))
	}

	f, err := excelize.OpenFile(paths[0])
	if err != nil {
		t.Fatalf("opening groups backup: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		t.Fatalf("reading groups backup: %v", err)
	}
	if len(rows) != 2 || rows[1][0] != "Verano" || rows[1][1] != "A1" {
		t.Errorf("groups backup rows = %v", rows)
	}
}
