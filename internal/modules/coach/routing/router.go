// Package routing picks the persona for a message and surfaces redirects.
package routing

import (
	"errors"

	"github.com/yungbote/pillars-backend/internal/modules/coach/personas"
	"github.com/yungbote/pillars-backend/internal/modules/coach/pillars"
	"github.com/yungbote/pillars-backend/internal/modules/coach/textmatch"
)

var ErrNoEntitledPillar = errors.New("user is not entitled to any pillar")

type Source string

const (
	SourceExplicit Source = "explicit"
	SourceActive   Source = "active"
	SourceInferred Source = "inferred"
	SourceFallback Source = "fallback"
	SourceCrisis   Source = "crisis"
)

// Entitlements answers whether a user's plan includes a pillar.
type Entitlements interface {
	Entitled(p pillars.ID) bool
}

type Input struct {
	UserID   string
	Message  string
	Explicit pillars.ID
	// Active is the pillar of the user's most recent conversation, if any.
	Active pillars.ID
	Access Entitlements
}

type Decision struct {
	TargetPersonaID string     `json:"targetPersonaId"`
	Pillar          pillars.ID `json:"pillar,omitempty"`
	Source          Source     `json:"source"`
	RedirectFrom    pillars.ID `json:"redirectFrom,omitempty"`
	RedirectReason  string     `json:"redirectReason,omitempty"`
	Referral        string     `json:"referral,omitempty"`
	// TargetLocked means a redirect matched but the target pillar is not in
	// the user's plan; the turn stays on RedirectFrom.
	TargetLocked bool       `json:"targetLocked,omitempty"`
	LockedTarget pillars.ID `json:"lockedTarget,omitempty"`
	Locked       bool       `json:"locked,omitempty"`
	Assists      []string   `json:"assists,omitempty"`
}

// Redirected reports a handoff that actually moved the turn.
func (d Decision) Redirected() bool { return d.RedirectFrom != "" && !d.TargetLocked }

type Router struct {
	registry *personas.Registry
}

func New(registry *personas.Registry) *Router {
	return &Router{registry: registry}
}

// Crisis is the absolute override used when the gate reports high or
// critical severity.
func Crisis(pillar pillars.ID) Decision {
	return Decision{TargetPersonaID: personas.CrisisHandlerID, Pillar: pillar, Source: SourceCrisis}
}

func (r *Router) Route(in Input) (Decision, error) {
	access := in.Access
	if access == nil {
		access = allowAll{}
	}
	text := textmatch.Normalize(in.Message)

	source, how := in.Explicit, SourceExplicit
	if source == "" {
		var ok bool
		source, how, ok = r.infer(text, in.Active, access)
		if !ok {
			return Decision{}, ErrNoEntitledPillar
		}
	}
	if !access.Entitled(source) {
		return Decision{Pillar: source, Source: how, Locked: true}, nil
	}

	d := r.decisionFor(source, how)
	r.applyRedirect(&d, text, access)
	d.Assists = r.assists(text)
	return d, nil
}

func (r *Router) decisionFor(p pillars.ID, how Source) Decision {
	c, _ := r.registry.ForPillar(p)
	return Decision{TargetPersonaID: c.ID, Pillar: p, Source: how}
}

// infer scores each pillar persona's keywords. The active pillar wins whenever
// it matches at all; entitled pillars beat locked ones at equal score.
func (r *Router) infer(text textmatch.Text, active pillars.ID, access Entitlements) (pillars.ID, Source, bool) {
	if active != "" {
		if c, ok := r.registry.ForPillar(active); ok && text.CountMatches(c.Keywords) > 0 {
			return active, SourceActive, true
		}
	}
	var best pillars.ID
	bestScore, bestEntitled := 0, false
	for _, p := range pillars.All {
		c, ok := r.registry.ForPillar(p)
		if !ok {
			continue
		}
		score := text.CountMatches(c.Keywords)
		if score == 0 {
			continue
		}
		ent := access.Entitled(p)
		if score > bestScore || (score == bestScore && ent && !bestEntitled) {
			best, bestScore, bestEntitled = p, score, ent
		}
	}
	if best != "" {
		return best, SourceInferred, true
	}
	if active != "" && access.Entitled(active) {
		return active, SourceFallback, true
	}
	for _, p := range pillars.All {
		if access.Entitled(p) {
			return p, SourceFallback, true
		}
	}
	return "", SourceFallback, false
}

func (r *Router) applyRedirect(d *Decision, text textmatch.Text, access Entitlements) {
	c, ok := r.registry.ForPillar(d.Pillar)
	if !ok {
		return
	}
	for _, rd := range c.Redirects {
		trigger := text.FirstMatch(rd.Triggers)
		if trigger == "" {
			continue
		}
		reason := rd.ReasonText(d.Pillar, trigger)
		if rd.Referral != "" {
			d.Referral = rd.Referral
			d.RedirectReason = reason
			return
		}
		from := d.Pillar
		if !access.Entitled(rd.Target) {
			d.RedirectFrom = from
			d.RedirectReason = reason
			d.TargetLocked = true
			d.LockedTarget = rd.Target
			return
		}
		*d = r.decisionFor(rd.Target, d.Source)
		d.RedirectFrom = from
		d.RedirectReason = reason
		return
	}
}

func (r *Router) assists(text textmatch.Text) []string {
	var out []string
	for _, c := range r.registry.CrossCutting() {
		if text.CountMatches(c.Keywords) > 0 {
			out = append(out, c.ID)
		}
	}
	return out
}

type allowAll struct{}

func (allowAll) Entitled(pillars.ID) bool { return true }
