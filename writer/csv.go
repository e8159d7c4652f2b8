package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"bitcraftsd/models"
)

var reportHeader = []string{
	"name", "item_type", "quantity", "max_sellOrder", "min_buyOrder",
	"total_spend", "total_income", "total_profit",
}

// WriteReportCSV writes the header and one line per row in the given order.
func WriteReportCSV(w io.Writer, rows []models.ReportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(reportHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		rec := []string{
			r.Name,
			r.ItemType,
			strconv.FormatInt(r.Quantity, 10),
			strconv.FormatInt(r.MaxSellOrder, 10),
			strconv.FormatInt(r.MinBuyOrder, 10),
			strconv.FormatInt(r.TotalSpend, 10),
			strconv.FormatInt(r.TotalIncome, 10),
			strconv.FormatInt(r.TotalProfit, 10),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv row %q: %w", r.Name, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteReportCSVFile writes the report to path, replacing any existing file.
func WriteReportCSVFile(path string, rows []models.ReportRow) error {
	f, err := createFile(path)
	if err != nil {
		return err
	}
	if err := WriteReportCSV(f, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteFile stores data at path, creating parent directories.
func WriteFile(path string, data []byte) error {
	f, err := createFile(path)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func createFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, nil
}
