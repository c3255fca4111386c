package output_test

import (
	"bytes"
	"encoding/csv"
	"math"
	"strconv"
	"testing"

	"github.com/pankaj-dahiya-devops/aicost/internal/output"
)

func readCSV(t *testing.T, opts output.CSVOptions) [][]string {
	t.Helper()
	var buf bytes.Buffer
	if err := output.WriteCSV(&buf, sampleReport(), opts); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	return rows
}

func centsOf(t *testing.T, s string) int64 {
	t.Helper()
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return int64(math.Round(f * 100))
}

func TestWriteCSV_Header(t *testing.T) {
	rows := readCSV(t, output.CSVOptions{})
	want := []string{"Project", "Service", "Cost", "DailyAverage", "Status"}
	if len(rows[0]) != len(want) {
		t.Fatalf("header = %v; want %v", rows[0], want)
	}
	for i := range want {
		if rows[0][i] != want[i] {
			t.Errorf("header[%d] = %q; want %q", i, rows[0][i], want[i])
		}
	}

	rows = readCSV(t, output.CSVOptions{IncludeMethods: true})
	if got := rows[0][len(rows[0])-1]; got != "CalcMethod" {
		t.Errorf("last header = %q; want CalcMethod", got)
	}
	if got := rows[1][5]; got != "proportional" {
		t.Errorf("first row method = %q; want proportional", got)
	}
}

func TestWriteCSV_Rows(t *testing.T) {
	rows := readCSV(t, output.CSVOptions{})
	// header, 2 eva rows, TOTAL, blank, 1 unattributed row, TOTAL, blank
	if len(rows) != 8 {
		t.Fatalf("rows = %d; want 8\n%v", len(rows), rows)
	}
	first := rows[1]
	if first[0] != "Ask Eva" || first[1] != "Amazon Bedrock" || first[2] != "30.15" || first[3] != "3.02" || first[4] != "POC" {
		t.Errorf("first row = %v", first)
	}
	if rows[3][1] != "TOTAL" || rows[3][2] != "31.38" {
		t.Errorf("eva TOTAL row = %v; want 31.38", rows[3])
	}
	for _, cell := range rows[4] {
		if cell != "" {
			t.Errorf("separator row = %v; want blank", rows[4])
		}
	}
}

func TestWriteCSV_TotalEqualsSumOfRows(t *testing.T) {
	rows := readCSV(t, output.CSVOptions{})
	var cost, avg int64
	blocks := 0
	for _, row := range rows[1:] {
		switch row[1] {
		case "":
			continue
		case "TOTAL":
			blocks++
			if got := centsOf(t, row[2]); got != cost {
				t.Errorf("%s TOTAL cost = %d cents; rows sum to %d", row[0], got, cost)
			}
			if got := centsOf(t, row[3]); got != avg {
				t.Errorf("%s TOTAL daily = %d cents; rows sum to %d", row[0], got, avg)
			}
			cost, avg = 0, 0
		default:
			cost += centsOf(t, row[2])
			avg += centsOf(t, row[3])
		}
	}
	if blocks != 2 {
		t.Errorf("TOTAL rows = %d; want 2", blocks)
	}
}
