// Package export writes telemetry readings as JSON or CSV.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/kilianp07/battery-health/core/model"
)

// CSVHeader lists the CSV columns in output order.
var CSVHeader = []string{
	"timestamp", "temperature", "dod", "c_rate", "inclination", "load",
	"jerk", "power_consumption", "health", "voltage", "current",
}

// WriteJSON writes the readings to w as a JSON array.
func WriteJSON(w io.Writer, readings []model.Reading) error {
	if readings == nil {
		readings = []model.Reading{}
	}
	return json.NewEncoder(w).Encode(readings)
}

// WriteCSV writes the readings to w with a CSVHeader row.
func WriteCSV(w io.Writer, readings []model.Reading) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, r := range readings {
		rec := []string{
			r.Timestamp.Format(time.RFC3339),
			formatFloat(r.Temperature),
			strconv.Itoa(r.DoD),
			formatFloat(r.CRate),
			strconv.Itoa(r.Inclination),
			strconv.Itoa(r.Load),
			formatFloat(r.Jerk),
			formatFloat(r.PowerConsumption),
			formatFloat(r.Health),
			formatFloat(r.Voltage),
			formatFloat(r.Current),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
