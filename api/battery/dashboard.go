package battery

import (
	"fmt"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/battery-health/core/model"
)

// dashboard renders the recent history as line charts with the current
// prediction in the page title.
func (h *handler) dashboard(w http.ResponseWriter, _ *http.Request) {
	hist := h.svc.History(h.limit)
	subtitle := "waiting for the first reading"
	if st, ok := h.svc.Current(); ok {
		subtitle = fmt.Sprintf("predicted health %.1f %% · remaining distance %.1f km", st.Health, st.RemainingDistance)
	}

	page := components.NewPage()
	page.SetPageTitle("Battery Health")
	page.AddCharts(
		lineChart("Simulated health", subtitle, "%", hist, func(r model.Reading) float64 { return r.Health }),
		lineChart("Power consumption", "", "kWh", hist, func(r model.Reading) float64 { return r.PowerConsumption }),
		lineChart("Temperature", "", "°C", hist, func(r model.Reading) float64 { return r.Temperature }),
	)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Render(w); err != nil {
		h.log.Errorf("render dashboard: %v", err)
	}
}

func lineChart(title, subtitle, unit string, hist []model.Reading, value func(model.Reading) float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Time"}),
		charts.WithYAxisOpts(opts.YAxis{Name: unit}),
	)
	xAxis := make([]string, len(hist))
	data := make([]opts.LineData, len(hist))
	for i, r := range hist {
		xAxis[i] = r.Timestamp.Format("15:04:05")
		data[i] = opts.LineData{Value: value(r)}
	}
	line.SetXAxis(xAxis).AddSeries(title, data, charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
	return line
}
