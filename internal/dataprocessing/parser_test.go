package dataprocessing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"
)

const salesHeader = "Date,OrderID,Store,SKU,Qty,UnitPrice,Currency\n"

func TestParseBytes(t *testing.T) {
	tests := []struct {
		name      string
		input     []byte
		wantRows  int
		wantLines []int
		wantErr   string
	}{
		{
			name:      "header and rows",
			input:     []byte(salesHeader + "2025-01-15,O1,S1,SKU1,2,10.00,USD\n2025-01-16,O2,S1,SKU2,1,3.50,eur\n"),
			wantRows:  2,
			wantLines: []int{2, 3},
		},
		{
			name:      "utf-8 bom stripped",
			input:     append([]byte{0xEF, 0xBB, 0xBF}, []byte(salesHeader+"2025-01-15,O1,S1,SKU1,2,10.00,USD\n")...),
			wantRows:  1,
			wantLines: []int{2},
		},
		{
			name:      "quoted field with comma",
			input:     []byte(salesHeader + "2025-01-15,O1,\"Store, Main\",SKU1,2,10.00,USD\n"),
			wantRows:  1,
			wantLines: []int{2},
		},
		{
			name:     "header only",
			input:    []byte(salesHeader),
			wantRows: 0,
		},
		{
			name:    "empty file",
			input:   []byte{},
			wantErr: "no header row",
		},
		{
			name:    "wrong field count",
			input:   []byte(salesHeader + "2025-01-15,O1,S1\n"),
			wantErr: "csv",
		},
		{
			name:    "six column header",
			input:   []byte("a,b,c,d,e,f\n1,2,3,4,5,6\n"),
			wantErr: "csv",
		},
		{
			name:    "unterminated quote",
			input:   []byte(salesHeader + "2025-01-15,\"O1,S1,SKU1,2,10.00,USD\n"),
			wantErr: "csv",
		},
		{
			name:    "invalid utf-8",
			input:   append([]byte(salesHeader), 0xff, 0xfe, 0xfd, '\n'),
			wantErr: "not valid UTF-8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := ParseBytes(tt.input)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []string{"Date", "OrderID", "Store", "SKU", "Qty", "UnitPrice", "Currency"}, table.Columns)
			assert.Len(t, table.Rows, tt.wantRows)
			if tt.wantLines != nil {
				assert.Equal(t, tt.wantLines, table.Lines)
			}
		})
	}
}

func TestParseBytes_UTF16WithBOM(t *testing.T) {
	encoded, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().
		Bytes([]byte(salesHeader + "2025-01-15,O1,S1,SKU1,2,10.00,USD\n"))
	require.NoError(t, err)

	table, err := ParseBytes(encoded)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "Date", table.Columns[0])
	assert.Equal(t, "USD", table.Rows[0][6])
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.csv")
	require.NoError(t, os.WriteFile(good, []byte(salesHeader+"2025-01-15,O1,S1,SKU1,2,10.00,USD\n"), 0644))

	result := ParseFile(good)
	assert.True(t, result.OK())
	assert.Equal(t, good, result.Path)
	assert.Len(t, result.Table.Rows, 1)

	missing := ParseFile(filepath.Join(dir, "missing.csv"))
	assert.False(t, missing.OK())
	assert.ErrorIs(t, missing.Err, os.ErrNotExist)
}
