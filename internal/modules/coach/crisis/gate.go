package crisis

import (
	"context"
	"fmt"

	"github.com/yungbote/pillars-backend/internal/platform/logger"
)

// Gate wraps a Classifier and turns its output into a CheckResult. Classifier
// errors and panics become the moderate fail-safe result.
type Gate struct {
	classifier Classifier
	log        *logger.Logger
}

func NewGate(classifier Classifier, log *logger.Logger) *Gate {
	if classifier == nil {
		classifier = NewKeywordClassifier()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Gate{classifier: classifier, log: log.With("service", "CrisisGate")}
}

func (g *Gate) Check(ctx context.Context, message string) (res CheckResult) {
	defer func() {
		if rec := recover(); rec != nil {
			g.log.Error("crisis classifier panicked", "panic", fmt.Sprint(rec))
			res = failSafe()
		}
	}()
	c, err := g.classifier.Classify(ctx, message)
	if err != nil {
		g.log.Warn("crisis classifier failed", "error", err, "message_len", len(message))
		return failSafe()
	}
	return FromClassification(c)
}

// FromClassification applies the severity policy: high and critical are
// crises with resources, moderate carries a notice, low and none pass.
func FromClassification(c Classification) CheckResult {
	sev := c.Severity
	if _, ok := severityRank[sev]; !ok || sev == "" {
		sev = SeverityNone
	}
	res := CheckResult{Severity: sev}
	if sev != SeverityNone {
		res.Type = c.Type
	}
	switch {
	case sev.AtLeast(SeverityHigh):
		res.IsCrisis = true
		res.Resources = ResourcesFor(c.Type)
	case sev == SeverityModerate:
		res.Notice = moderateNotice
		res.Resources = ResourcesFor(c.Type)
	}
	return res
}

func failSafe() CheckResult {
	return CheckResult{
		Severity:         SeverityModerate,
		Notice:           failSafeNotice,
		Resources:        ResourcesFor(""),
		ClassifierFailed: true,
	}
}
