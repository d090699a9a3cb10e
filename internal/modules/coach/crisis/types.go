// Package crisis implements the safety triage that runs before any persona.
package crisis

type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityNone:     0,
	SeverityLow:      1,
	SeverityModerate: 2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

func (s Severity) Rank() int { return severityRank[s] }

func (s Severity) AtLeast(o Severity) bool { return s.Rank() >= o.Rank() }

type Type string

const (
	TypeSuicide          Type = "suicide"
	TypeSelfHarm         Type = "self_harm"
	TypeViolence         Type = "violence"
	TypeAbuse            Type = "abuse"
	TypeMedicalEmergency Type = "medical_emergency"
	TypeSubstance        Type = "substance"
	TypeEatingDisorder   Type = "eating_disorder"
	TypeDistress         Type = "distress"
)

type Resource struct {
	Name        string `json:"name"`
	Contact     string `json:"contact"`
	Description string `json:"description,omitempty"`
}

// CheckResult is produced fresh per message and only ever persisted as an
// audit row without the message text.
type CheckResult struct {
	IsCrisis         bool       `json:"isCrisis"`
	Severity         Severity   `json:"severity"`
	Type             Type       `json:"type,omitempty"`
	Resources        []Resource `json:"resources,omitempty"`
	Notice           string     `json:"notice,omitempty"`
	ClassifierFailed bool       `json:"-"`
}

// Classification is what a Classifier returns; the Gate derives the rest.
type Classification struct {
	Severity Severity
	Type     Type
}
