package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// SalesHeader is the canonical header of a sales extract
const SalesHeader = "Date,OrderID,Store,SKU,Qty,UnitPrice,Currency"

// SalesFile is a named CSV file in a fixture folder
type SalesFile struct {
	Name    string
	Content string
}

// SalesCSV builds a sales file with the canonical header and the given lines
func SalesCSV(name string, lines ...string) SalesFile {
	return SalesFile{Name: name, Content: SalesHeader + "\n" + strings.Join(lines, "\n") + "\n"}
}

// JanFebSales is two orders for one store and SKU: 2 x 10.00 USD in
// January 2025 and 1 x 5.00 EUR in February 2025
func JanFebSales() []SalesFile {
	return []SalesFile{
		SalesCSV("sales_jan.csv", "2025-01-15,O1,S1,SKU1,2,10.00,USD"),
		SalesCSV("sales_feb.csv", "2025-02-10,O2,S1,SKU1,1,5.00,EUR"),
	}
}

// SalesFolder writes files into a new temporary folder and returns its path
func SalesFolder(t *testing.T, files ...SalesFile) string {
	t.Helper()
	dir := t.TempDir()
	for _, f := range files {
		path := filepath.Join(dir, f.Name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("create fixture dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(f.Content), 0644); err != nil {
			t.Fatalf("write fixture %s: %v", f.Name, err)
		}
	}
	return dir
}
