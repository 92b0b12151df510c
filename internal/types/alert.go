package types

// AlertLevel is the hazard classification derived from the forecast chart.
type AlertLevel string

const (
	// AlertRed indicates dangerous rip currents (red flag conditions).
	AlertRed AlertLevel = "red"
	// AlertYellow indicates moderate rip currents (yellow flag conditions).
	AlertYellow AlertLevel = "yellow"
	// AlertCalm indicates no significant current activity.
	AlertCalm AlertLevel = "calm"
)

// AlertStatus bundles an AlertLevel with its bilingual display labels.
// Instances are created by the alert classifier and never mutated afterward.
type AlertStatus struct {
	Level        AlertLevel `json:"level"`
	Label        string     `json:"label"`
	LabelEnglish string     `json:"label_english"`
	LabelSpanish string     `json:"label_spanish"`
}

// Canonical display labels per alert level. The detect package is the only
// component that decides which level applies; everything else (email subject
// lines, the status endpoint) reads the labels from the resulting AlertStatus.
var alertLabels = map[AlertLevel][2]string{
	AlertRed:    {"STRONG CURRENTS", "Corrientes Fuertes"},
	AlertYellow: {"MODERATE CURRENTS", "Corrientes Moderadas"},
	AlertCalm:   {"CALM CONDITIONS", "Condiciones Calmas"},
}

// AlertStatusFor returns the canonical AlertStatus for a level.
// Unknown levels map to AlertCalm.
func AlertStatusFor(level AlertLevel) AlertStatus {
	labels, ok := alertLabels[level]
	if !ok {
		level = AlertCalm
		labels = alertLabels[AlertCalm]
	}
	return AlertStatus{
		Level:        level,
		Label:        labels[0],
		LabelEnglish: labels[0],
		LabelSpanish: labels[1],
	}
}

// Translate returns the label for the requested ISO 639-1 language code.
// Spanish ("es") returns the Spanish label; every other code falls back to
// English.
func (s AlertStatus) Translate(lang string) string {
	if lang == "es" {
		return s.LabelSpanish
	}
	return s.LabelEnglish
}
