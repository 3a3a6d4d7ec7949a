package convert

import (
	"fmt"
	"time"

	"facility-export/internal/excel"
	"facility-export/internal/models"
	"facility-export/internal/output"
)

const (
	DefaultInput  = "Master_Data_Professional Health Mapping 4 as of 9 August 2024.xlsx"
	DefaultSheet  = "Master Data"
	DefaultOutput = "health_facilities.json"

	xlsxSheet = "Facilities"
)

type ProgressCallback func(current, total int, msg string)
type LoggerCallback func(msg string)

// Config selects the workbook to read and where results go. Empty optional
// output paths are skipped.
type Config struct {
	Input             string
	Sheet             string
	Output            string
	YAMLOutput        string
	XLSXOutput        string
	StrictCoordinates bool
}

// Run executes load, project/filter and write once. Either callback may be nil.
func Run(cfg Config, onProgress ProgressCallback, logger LoggerCallback) (Summary, error) {
	if logger == nil {
		logger = func(string) {}
	}
	progress := func(step int, msg string) {
		if onProgress != nil {
			onProgress(step, 4, msg)
		}
	}

	start := time.Now()

	f, err := excel.OpenFile(cfg.Input)
	if err != nil {
		return Summary{}, err
	}
	defer f.Close()

	logger(fmt.Sprintf("Reading sheet %q from %s", cfg.Sheet, cfg.Input))
	table, err := excel.ReadTable(f, cfg.Sheet)
	if err != nil {
		return Summary{}, err
	}
	progress(1, fmt.Sprintf("%d rows read", len(table.Rows)))

	data, summary, err := Facilities(table, cfg.StrictCoordinates)
	if err != nil {
		return Summary{}, err
	}
	progress(2, fmt.Sprintf("%d rows kept, %d dropped", summary.Converted, summary.Dropped))

	env := models.NewEnvelope(data)
	if err := output.WriteJSON(cfg.Output, env); err != nil {
		return Summary{}, err
	}
	logger(fmt.Sprintf("Wrote %s", cfg.Output))
	progress(3, "")

	if cfg.YAMLOutput != "" {
		if err := output.WriteYAML(cfg.YAMLOutput, env); err != nil {
			return Summary{}, err
		}
		logger(fmt.Sprintf("Wrote %s", cfg.YAMLOutput))
	}
	if cfg.XLSXOutput != "" {
		if err := excel.WriteFacilities(cfg.XLSXOutput, data, xlsxSheet); err != nil {
			return Summary{}, err
		}
		logger(fmt.Sprintf("Wrote %s", cfg.XLSXOutput))
	}
	progress(4, "")

	logger(fmt.Sprintf("Conversion finished in %s", time.Since(start)))
	return summary, nil
}
