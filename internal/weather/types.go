package weather

import "time"

type Place struct {
	Insee    string  `json:"insee"`
	Name     string  `json:"name"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Country  string  `json:"country"`
	Admin    string  `json:"admin"`
	Admin2   string  `json:"admin2"`
	PostCode string  `json:"postCode"`
}

type Position struct {
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Name     string  `json:"name"`
	Country  string  `json:"country"`
	Dept     string  `json:"dept"`
	Timezone string  `json:"timezone"`
}

type Temperature struct {
	Value     float64 `json:"value"`
	Windchill float64 `json:"windchill"`
}

type Conditions struct {
	Icon string `json:"icon"`
	Desc string `json:"desc"`
}

// HourlyForecast is one entry of the forecast array; DT is unix seconds.
type HourlyForecast struct {
	DT       int64       `json:"dt"`
	T        Temperature `json:"T"`
	Humidity int         `json:"humidity"`
	Weather  Conditions  `json:"weather"`
}

func (h HourlyForecast) Time() time.Time {
	return time.Unix(h.DT, 0)
}

type Forecast struct {
	Position  Position         `json:"position"`
	UpdatedOn int64            `json:"updated_on"`
	Hourly    []HourlyForecast `json:"forecast"`
}

// Current returns the latest entry that is not in the future, or the first
// one when every entry is ahead of now.
func (f *Forecast) Current(now time.Time) (HourlyForecast, bool) {
	if len(f.Hourly) == 0 {
		return HourlyForecast{}, false
	}
	current := f.Hourly[0]
	for _, h := range f.Hourly {
		if h.DT > now.Unix() {
			break
		}
		current = h
	}
	return current, true
}

// Location returns the forecast timezone, falling back to the local one.
func (f *Forecast) Location() *time.Location {
	if f.Position.Timezone != "" {
		if loc, err := time.LoadLocation(f.Position.Timezone); err == nil {
			return loc
		}
	}
	return time.Local
}

type RainStep struct {
	DT   int64  `json:"dt"`
	Rain int    `json:"rain"`
	Desc string `json:"desc"`
}

type RainForecast struct {
	Position  Position   `json:"position"`
	UpdatedOn int64      `json:"updated_on"`
	Quality   int        `json:"quality"`
	Steps     []RainStep `json:"forecast"`
}

// NextRain returns the first step with actual precipitation. Intensity 1 means dry.
func (r *RainForecast) NextRain() (time.Time, bool) {
	for _, s := range r.Steps {
		if s.Rain > 1 {
			return time.Unix(s.DT, 0), true
		}
	}
	return time.Time{}, false
}

// Report is everything needed to render one city digest.
type Report struct {
	Place    Place
	Forecast *Forecast
	NextRain *time.Time
}
