package monitor

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/squat.report/internal/httputil"
	"github.com/banshee-data/squat.report/internal/pose/classify"
	"github.com/banshee-data/squat.report/internal/pose/overlay"
)

// labelColors returns the overlay bar colours so the chart reads the same
// as the annotated video.
func labelColors() [classify.NumLabels]string {
	var out [classify.NumLabels]string
	for i, c := range overlay.DefaultPalette().Bars {
		out[i] = fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return out
}

// WriteProbabilityChart renders one line per label showing the smoothed
// probability over time. Frames before the classifier warmed up plot as
// zero.
func (r *SeriesRecorder) WriteProbabilityChart(w io.Writer) error {
	samples := r.Samples()
	if len(samples) == 0 {
		return ErrNoData
	}

	x := make([]string, len(samples))
	for i, s := range samples {
		x[i] = strconv.Itoa(s.Index)
	}

	reps := samples[len(samples)-1].Reps

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Squat form", Width: "1200px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "Form classification", Subtitle: fmt.Sprintf("frames=%d reps=%d", len(samples), reps)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Frame", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Probability", Min: 0, Max: 1}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
	)
	line.SetXAxis(x)

	names := classify.LabelNames()
	colors := labelColors()
	for l := 0; l < classify.NumLabels; l++ {
		data := make([]opts.LineData, len(samples))
		for i, s := range samples {
			data[i] = opts.LineData{Value: s.Probabilities[l]}
		}
		line.AddSeries(names[l], data,
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: colors[l]}),
		)
	}

	if err := line.Render(w); err != nil {
		return fmt.Errorf("render probability chart: %w", err)
	}
	return nil
}

// ServeHTTP serves the probability chart of the frames recorded so far.
func (r *SeriesRecorder) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if err := httputil.WriteHTML(w, r.WriteProbabilityChart); err != nil {
		if errors.Is(err, ErrNoData) {
			httputil.NotFound(w, err.Error())
			return
		}
		httputil.WriteJSONError(w, http.StatusInternalServerError, err.Error())
	}
}
