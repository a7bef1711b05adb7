package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"salesInsight/business/rfm"
	"salesInsight/domain"
	"salesInsight/pkg/logger"
)

const (
	PlotSalesByYear       = "sales_by_year.png"
	PlotSalesByTerritory  = "sales_by_territory.png"
	PlotFrequencyDist     = "frequency_distribution.png"
	frequencyHistogramBin = 30
)

// WritePlots renders the descriptive charts into dir and returns the files
// written. The territory chart is skipped when no row has a territory.
func WritePlots(dir string, txs []domain.Transaction) ([]string, error) {
	if len(txs) == 0 {
		return nil, &domain.EmptyInputError{Stage: "plots"}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create plots dir: %w", err)
	}

	type plot struct {
		file, title, xLabel, yLabel string
		bars                        []Bar
	}
	plots := []plot{
		{PlotSalesByYear, "Total Sales by Year", "Year", "SalesAmount", SalesByYear(txs)},
	}
	if territory := SalesByTerritory(txs); len(territory) > 0 {
		plots = append(plots, plot{PlotSalesByTerritory, "Sales by Territory", "Territory", "SalesAmount", territory})
	}
	plots = append(plots, plot{
		PlotFrequencyDist, "Distribution of Purchase Frequency per Customer", "Number of Orders", "Customers",
		FrequencyDistribution(txs, frequencyHistogramBin),
	})

	written := make([]string, 0, len(plots))
	for _, p := range plots {
		var buf bytes.Buffer
		if err := RenderBarChart(&buf, p.title, p.xLabel, p.yLabel, p.bars); err != nil {
			return written, fmt.Errorf("render %s: %w", p.file, err)
		}
		path := filepath.Join(dir, p.file)
		if err := writeFileAtomic(path, buf.Bytes()); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	logger.Info("plots written", "dir", dir, "files", len(written))
	return written, nil
}

// ExportRFMCSV writes every column of the table with a header row.
func ExportRFMCSV(w io.Writer, table *rfm.Table) error {
	cols := rfm.Columns()
	rows, err := table.Select(cols...)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	record := make([]string, len(cols))
	for _, row := range rows {
		for i, c := range cols {
			record[i] = formatCell(row[c])
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteRFMCSV exports the table to path.
func WriteRFMCSV(path string, table *rfm.Table) error {
	var buf bytes.Buffer
	if err := ExportRFMCSV(&buf, table); err != nil {
		return err
	}
	return writeFileAtomic(path, buf.Bytes())
}

// ExportJSON writes v as indented JSON to path.
func ExportJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	return writeFileAtomic(path, append(data, '\n'))
}

func formatCell(v any) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case domain.Segment:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
