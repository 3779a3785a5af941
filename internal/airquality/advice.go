package airquality

import "github.com/samber/lo"

// CPCB limits in µg/m³.
const (
	PM25Limit = 60.0
	PM10Limit = 100.0
)

// Level is the threshold band a value falls into.
type Level string

const (
	LevelUnknown  Level = "unknown"
	LevelSafe     Level = "safe"
	LevelModerate Level = "moderate"
	LevelAbove    Level = "above"
)

// Color is the display colour of the band.
func (l Level) Color() string {
	switch l {
	case LevelAbove:
		return "red"
	case LevelModerate:
		return "orange"
	case LevelSafe:
		return "green"
	default:
		return "gray"
	}
}

// Classify maps a value to its band: above the limit, above half the limit, or safe.
func Classify(value *float64, limit float64) Level {
	switch {
	case value == nil:
		return LevelUnknown
	case *value > limit:
		return LevelAbove
	case *value > limit*0.5:
		return LevelModerate
	default:
		return LevelSafe
	}
}

// Severity of a mitigation tip; mirrors the banner style used on the page.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
)

// Tip is a mitigation banner.
type Tip struct {
	Metric   string   `json:"metric"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Tips returns the mitigation banners for a reading. Missing metrics produce no tip.
func Tips(r Reading) []Tip {
	var tips []Tip
	if r.PM25 != nil {
		switch Classify(r.PM25, PM25Limit) {
		case LevelAbove:
			tips = append(tips, Tip{"PM2.5", SeverityWarning, "PM2.5 above limit! Water sprinkle & cover debris"})
		case LevelModerate:
			tips = append(tips, Tip{"PM2.5", SeverityInfo, "Moderate PM2.5 – maintain dust control"})
		default:
			tips = append(tips, Tip{"PM2.5", SeveritySuccess, "PM2.5 safe"})
		}
	}
	if r.PM10 != nil {
		switch Classify(r.PM10, PM10Limit) {
		case LevelAbove:
			tips = append(tips, Tip{"PM10", SeverityWarning, "PM10 above limit! Increase dust suppression"})
		case LevelModerate:
			tips = append(tips, Tip{"PM10", SeverityInfo, "Moderate PM10 – maintain dust control"})
		default:
			tips = append(tips, Tip{"PM10", SeveritySuccess, "PM10 safe"})
		}
	}
	return tips
}

// Guideline is one row of the CPCB table.
type Guideline struct {
	Parameter string `json:"parameter"`
	Limit     string `json:"limit"`
	Action    string `json:"action"`
}

// Guidelines is the static CPCB compliance table.
var Guidelines = []Guideline{
	{Parameter: "PM2.5", Limit: "60 µg/m³", Action: "Water sprinkling, cover debris"},
	{Parameter: "PM10", Limit: "100 µg/m³", Action: "Dust suppression, cover materials"},
	{Parameter: "Noise", Limit: "75 dB", Action: "Wear ear protection"},
	{Parameter: "Waste Management", Limit: "No open dumping", Action: "Proper disposal"},
}

// ChecklistItem is one manual site-compliance check.
type ChecklistItem struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Checklist lists the site-compliance checks in display order.
var Checklist = []ChecklistItem{
	{Key: "wheel_wash", Label: "Wheel washing"},
	{Key: "water_spray", Label: "Water spraying"},
	{Key: "covering", Label: "Covering debris/material"},
	{Key: "waste_handling", Label: "Waste handling"},
	{Key: "ppe", Label: "PPE worn"},
}

// Progress returns the completed fraction of the checklist. Unknown and
// repeated keys are ignored.
func Progress(checked []string) float64 {
	done := lo.Intersect(lo.Uniq(checked), lo.Map(Checklist, func(c ChecklistItem, _ int) string {
		return c.Key
	}))
	return float64(len(done)) / float64(len(Checklist))
}
