package crisis

import (
	"context"

	"github.com/yungbote/pillars-backend/internal/modules/coach/textmatch"
)

// Classifier is the pluggable content classifier behind the gate.
type Classifier interface {
	Classify(ctx context.Context, message string) (Classification, error)
}

type rule struct {
	severity Severity
	kind     Type
	phrases  []string
}

// defaultRules are checked highest severity first; the first hit wins.
var defaultRules = []rule{
	{SeverityCritical, TypeSuicide, []string{
		"kill myself", "killing myself", "end my life", "ending my life", "suicid*", "take my own life",
		"want to die", "wanna die", "better off dead", "no reason to live", "dont want to be alive",
		"dont want to live", "not want to live", "end it all",
	}},
	{SeverityCritical, TypeMedicalEmergency, []string{
		"cant breathe", "heart attack", "having a stroke", "overdosed", "took too many pills", "unconscious",
	}},
	{SeverityHigh, TypeSelfHarm, []string{
		"hurt myself", "hurting myself", "harm myself", "harming myself", "self harm", "cut myself",
		"cutting myself", "burn myself", "punish myself",
	}},
	{SeverityHigh, TypeViolence, []string{
		"kill him", "kill her", "kill them", "hurt someone", "hurt somebody", "shoot someone", "stab someone",
	}},
	{SeverityHigh, TypeAbuse, []string{
		"he hits me", "she hits me", "being abused", "abusing me", "afraid for my safety",
		"not safe at home", "threatened to kill me",
	}},
	{SeverityHigh, TypeSubstance, []string{"overdose*", "mixing pills"}},
	{SeverityModerate, TypeEatingDisorder, []string{
		"starving myself", "purging", "making myself throw up", "make myself throw up", "stopped eating",
	}},
	{SeverityModerate, TypeSubstance, []string{"relapse*", "blackout drunk", "cant stop drinking", "using again"}},
	{SeverityModerate, TypeDistress, []string{
		"hopeless", "cant go on", "give up on everything", "no way out", "worthless", "cant stop crying",
	}},
	{SeverityLow, TypeDistress, []string{"overwhelmed", "stressed out", "burned out", "burnt out", "panic attack*"}},
}

// KeywordClassifier matches normalized phrases. It deliberately ignores
// negation: over-triage is acceptable, under-triage is not.
type KeywordClassifier struct {
	rules []rule
}

func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{rules: defaultRules}
}

func (k *KeywordClassifier) Classify(ctx context.Context, message string) (Classification, error) {
	if err := ctx.Err(); err != nil {
		return Classification{}, err
	}
	text := textmatch.Normalize(message)
	for _, r := range k.rules {
		if text.FirstMatch(r.phrases) != "" {
			return Classification{Severity: r.severity, Type: r.kind}, nil
		}
	}
	return Classification{Severity: SeverityNone}, nil
}
