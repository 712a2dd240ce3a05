package export

import (
	"encoding/csv"
	"io"
	"strconv"
)

func WriteCSV(w io.Writer, rows []Row) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.Date,
			r.Start,
			r.End,
			strconv.FormatFloat(r.DurationSeconds, 'f', 0, 64),
			strconv.FormatFloat(r.Hours, 'f', 2, 64),
			strconv.FormatFloat(r.Earnings, 'f', 2, 64),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
