package routing

import (
	"errors"
	"testing"

	"github.com/yungbote/pillars-backend/internal/modules/coach/personas"
	"github.com/yungbote/pillars-backend/internal/modules/coach/pillars"
)

type plan pillars.Set

func (p plan) Entitled(id pillars.ID) bool { return pillars.Set(p).Has(id) }

func allPillars() plan { return plan(pillars.NewSet(pillars.All...)) }

func newRouter(t *testing.T) *Router {
	t.Helper()
	return New(personas.MustDefault())
}

func TestRouteResolution(t *testing.T) {
	r := newRouter(t)
	cases := []struct {
		name       string
		in         Input
		pillar     pillars.ID
		source     Source
		redirected bool
		locked     bool
	}{
		{
			name:   "explicit_context_wins_over_content",
			in:     Input{Message: "my credit card debt is huge", Explicit: pillars.Social, Access: allPillars()},
			pillar: pillars.Social, source: SourceExplicit,
		},
		{
			name:   "scenario_a_infers_finances",
			in:     Input{Message: "I'm drowning in $28k credit card debt", Access: allPillars()},
			pillar: pillars.Finances, source: SourceInferred,
		},
		{
			name:   "active_pillar_breaks_tie",
			in:     Input{Message: "I'm so tired, should I work out before dinner?", Active: pillars.Diet, Access: allPillars()},
			pillar: pillars.Diet, source: SourceActive,
		},
		{
			name:   "no_signal_falls_back_to_active",
			in:     Input{Message: "hello there", Active: pillars.Spirituality, Access: allPillars()},
			pillar: pillars.Spirituality, source: SourceFallback,
		},
		{
			name:   "no_signal_no_active_first_entitled",
			in:     Input{Message: "hello there", Access: plan(pillars.NewSet(pillars.Social, pillars.Finances))},
			pillar: pillars.Finances, source: SourceFallback,
		},
		{
			name:       "sleep_adhd_redirects_to_mental_health",
			in:         Input{Message: "I can't sleep, could this be ADHD? I want a screening", Explicit: pillars.Sleep, Access: allPillars()},
			pillar:     pillars.MentalHealth, source: SourceExplicit, redirected: true,
		},
		{
			name:       "exercise_injury_redirects_to_physical_health",
			in:         Input{Message: "I think I injured my knee at the gym", Access: allPillars()},
			pillar:     pillars.PhysicalHealth, source: SourceInferred, redirected: true,
		},
		{
			name:   "locked_explicit_pillar",
			in:     Input{Message: "help me budget", Explicit: pillars.Finances, Access: plan(pillars.NewSet(pillars.Sleep))},
			pillar: pillars.Finances, source: SourceExplicit, locked: true,
		},
		{
			name:   "locked_inferred_pillar",
			in:     Input{Message: "my credit card debt", Access: plan(pillars.NewSet(pillars.Sleep))},
			pillar: pillars.Finances, source: SourceInferred, locked: true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := r.Route(tc.in)
			if err != nil {
				t.Fatalf("Route: %v", err)
			}
			if d.Pillar != tc.pillar {
				t.Fatalf("pillar: want=%s got=%s", tc.pillar, d.Pillar)
			}
			if d.Source != tc.source {
				t.Fatalf("source: want=%s got=%s", tc.source, d.Source)
			}
			if d.Redirected() != tc.redirected {
				t.Fatalf("redirected: want=%v got=%v (%+v)", tc.redirected, d.Redirected(), d)
			}
			if d.Locked != tc.locked {
				t.Fatalf("locked: want=%v got=%v", tc.locked, d.Locked)
			}
			if !d.Locked && d.TargetPersonaID == "" {
				t.Fatalf("TargetPersonaID should be set")
			}
		})
	}
}

func TestADHDScreeningRedirect(t *testing.T) {
	r := newRouter(t)
	d, err := r.Route(Input{Message: "Can you do an ADHD screening for me?", Explicit: pillars.Sleep, Access: allPillars()})
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	mh, _ := personas.MustDefault().ForPillar(pillars.MentalHealth)
	if d.TargetPersonaID != mh.ID {
		t.Fatalf("TargetPersonaID: want=%s got=%s", mh.ID, d.TargetPersonaID)
	}
	if d.RedirectFrom != pillars.Sleep || d.RedirectReason == "" {
		t.Fatalf("redirect: want from=sleep with reason got=%+v", d)
	}
}

func TestLockedRedirectTargetStaysOnSource(t *testing.T) {
	r := newRouter(t)
	d, err := r.Route(Input{
		Message:  "my anxiety keeps me up",
		Explicit: pillars.Sleep,
		Access:   plan(pillars.NewSet(pillars.Sleep)),
	})
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if d.Pillar != pillars.Sleep || !d.TargetLocked || d.LockedTarget != pillars.MentalHealth {
		t.Fatalf("locked target: got=%+v", d)
	}
	if d.Redirected() {
		t.Fatalf("a locked target should not count as redirected")
	}
	if d.RedirectReason == "" {
		t.Fatalf("reason should be kept for the handoff sentence")
	}
}

func TestReferralKeepsPillar(t *testing.T) {
	r := newRouter(t)
	d, err := r.Route(Input{Message: "I owe back taxes on my credit card debt", Explicit: pillars.Finances, Access: allPillars()})
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if d.Pillar != pillars.Finances || d.Referral == "" || d.Redirected() {
		t.Fatalf("referral: got=%+v", d)
	}
}

func TestAssists(t *testing.T) {
	r := newRouter(t)
	d, _ := r.Route(Input{Message: "I fell off my plan and I'm stuck on where do I start with my budget", Access: allPillars()})
	want := map[string]bool{personas.AdaptivePlannerID: true, personas.MicroActionsID: true}
	for _, a := range d.Assists {
		delete(want, a)
	}
	if len(want) != 0 {
		t.Fatalf("assists: missing %v got=%v", want, d.Assists)
	}
}

func TestNoEntitledPillar(t *testing.T) {
	r := newRouter(t)
	_, err := r.Route(Input{Message: "hi", Access: plan(pillars.NewSet())})
	if !errors.Is(err, ErrNoEntitledPillar) {
		t.Fatalf("want ErrNoEntitledPillar got=%v", err)
	}
}

func TestCrisisOverride(t *testing.T) {
	d := Crisis(pillars.Social)
	if d.TargetPersonaID != personas.CrisisHandlerID || d.Source != SourceCrisis {
		t.Fatalf("Crisis: got=%+v", d)
	}
}
