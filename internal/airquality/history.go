package airquality

import (
	"time"

	"github.com/samber/lo"
)

// ForecastPoints is the width of the trailing moving average.
const ForecastPoints = 3

// Window returns the readings with Time strictly after now-d, in their
// insertion order. A reading exactly on the boundary is excluded.
// h is not modified.
func Window(h History, now time.Time, d time.Duration) History {
	cutoff := now.Add(-d)
	return lo.Filter(h, func(r Reading, _ int) bool {
		return r.Time.After(cutoff)
	})
}

// ForecastFrom projects the next reading as the mean of the last
// ForecastPoints values of each metric. With fewer points available the mean
// is taken over what there is; with none the metric is nil.
func ForecastFrom(window History) Forecast {
	return Forecast{
		PM25: trailingMean(window, func(r Reading) *float64 { return r.PM25 }),
		PM10: trailingMean(window, func(r Reading) *float64 { return r.PM10 }),
	}
}

func trailingMean(window History, metric func(Reading) *float64) *float64 {
	values := lo.FilterMap(window, func(r Reading, _ int) (float64, bool) {
		v := metric(r)
		if v == nil {
			return 0, false
		}
		return *v, true
	})
	if len(values) == 0 {
		return nil
	}
	if len(values) > ForecastPoints {
		values = values[len(values)-ForecastPoints:]
	}
	mean := lo.Sum(values) / float64(len(values))
	return &mean
}
