package dataset

import (
	"sort"
)

// Dataset holds the normalized observation and event tables split out of
// the enriched CSV. Both tables are immutable once loaded; every accessor
// works on copies or derived values.
type Dataset struct {
	Observations []Observation
	Events       []Event
}

// EventByID resolves an event by its record ID join key
func (d *Dataset) EventByID(recordID string) (Event, bool) {
	for _, e := range d.Events {
		if e.RecordID == recordID {
			return e, true
		}
	}
	return Event{}, false
}

// EventByName resolves an event by its display name
func (d *Dataset) EventByName(name string) (Event, bool) {
	for _, e := range d.Events {
		if e.Name == name {
			return e, true
		}
	}
	return Event{}, false
}

// EventNames returns the distinct event names in first-seen order
func (d *Dataset) EventNames() []string {
	seen := make(map[string]bool, len(d.Events))
	names := make([]string, 0, len(d.Events))
	for _, e := range d.Events {
		if !seen[e.Name] {
			seen[e.Name] = true
			names = append(names, e.Name)
		}
	}
	return names
}

// ObservationsFor returns all observations for an indicator, ascending by date
func (d *Dataset) ObservationsFor(indicator string) []Observation {
	var obs []Observation
	for _, o := range d.Observations {
		if o.Indicator == indicator {
			obs = append(obs, o)
		}
	}
	sort.Slice(obs, func(i, j int) bool {
		return obs[i].Date.Before(obs[j].Date)
	})
	return obs
}

// YearlySeries aggregates an indicator's observations to one value per
// calendar year (mean when multiple observations share a year), ascending
// by year. This is the canonical pre-modeling shape for all forecasting.
func (d *Dataset) YearlySeries(indicator string) []YearValue {
	sums := make(map[int]float64)
	counts := make(map[int]int)
	for _, o := range d.Observations {
		if o.Indicator != indicator {
			continue
		}
		year := o.Date.Year()
		sums[year] += o.Value
		counts[year]++
	}

	series := make([]YearValue, 0, len(sums))
	for year, sum := range sums {
		series = append(series, YearValue{Year: year, Value: sum / float64(counts[year])})
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].Year < series[j].Year
	})
	return series
}

// LatestValue returns the most recent yearly-aggregated value for an
// indicator. The second return is false when the indicator has no
// observations at all.
func (d *Dataset) LatestValue(indicator string) (float64, bool) {
	series := d.YearlySeries(indicator)
	if len(series) == 0 {
		return 0, false
	}
	return series[len(series)-1].Value, true
}
