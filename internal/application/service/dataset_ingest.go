package service

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"sort"
	"strconv"

	"github.com/fraudguard/fraudguard/internal/domain/models"
	"github.com/fraudguard/fraudguard/pkg/errors"
)

// ParseDataset reads a training dataset from r. Supported formats are "csv"
// (header row names the columns) and "json" (array of flat objects). Column
// validation happens later in the feature pipeline; parsing only requires a
// well-formed table.
func ParseDataset(format string, r io.Reader) (*models.TrainingDataset, error) {
	switch format {
	case "csv":
		return parseCSV(r)
	case "json":
		return parseJSON(r)
	default:
		return nil, errors.ErrInvalidInput.WithMessage("unsupported dataset format: %q", format)
	}
}

func parseCSV(r io.Reader) (*models.TrainingDataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, errors.ErrInvalidDataset.WithMessage("missing csv header").WithError(err)
	}

	dataset := &models.TrainingDataset{Columns: header}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.ErrInvalidDataset.WithMessage("malformed csv row").WithError(err)
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		dataset.Rows = append(dataset.Rows, row)
	}
	return dataset, nil
}

func parseJSON(r io.Reader) (*models.TrainingDataset, error) {
	var raw []map[string]interface{}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errors.ErrInvalidDataset.WithMessage("malformed json dataset").WithError(err)
	}

	columns := make(map[string]bool)
	rows := make([]map[string]string, 0, len(raw))
	for _, obj := range raw {
		row := make(map[string]string, len(obj))
		for k, v := range obj {
			columns[k] = true
			row[k] = stringify(v)
		}
		rows = append(rows, row)
	}

	names := make([]string, 0, len(columns))
	for name := range columns {
		names = append(names, name)
	}
	sort.Strings(names)

	return &models.TrainingDataset{Columns: names, Rows: rows}, nil
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}
