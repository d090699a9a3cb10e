package personas

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/yungbote/pillars-backend/internal/modules/coach/pillars"
)

func TestDefaultRegistryCoversEveryPillar(t *testing.T) {
	r, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	for _, p := range pillars.All {
		c, ok := r.ForPillar(p)
		if !ok {
			t.Fatalf("ForPillar(%s): missing", p)
		}
		if c.Pillar != p || !c.IsPillar() {
			t.Fatalf("ForPillar(%s): got persona %s pillar=%s kind=%s", p, c.ID, c.Pillar, c.Kind)
		}
	}
	for _, id := range []string{CrisisHandlerID, CorrelationEngineID, JournalingAgentID, AdaptivePlannerID, MicroActionsID} {
		if _, ok := r.Get(id); !ok {
			t.Fatalf("Get(%s): missing", id)
		}
	}
	all := r.All()
	if len(all) != 13 {
		t.Fatalf("All: want=13 got=%d", len(all))
	}
	if all[0].Pillar != pillars.Sleep {
		t.Fatalf("All[0]: want sleep persona got=%s", all[0].ID)
	}
	for _, c := range r.CrossCutting() {
		if c.ID == CrisisHandlerID {
			t.Fatalf("CrossCutting should not include the crisis handler")
		}
	}
}

func TestRedirectTables(t *testing.T) {
	r := MustDefault()
	cases := []struct {
		from   pillars.ID
		target pillars.ID
		ref    bool
	}{
		{from: pillars.Sleep, target: pillars.MentalHealth},
		{from: pillars.Diet, target: pillars.PhysicalHealth},
		{from: pillars.Exercise, target: pillars.PhysicalHealth},
		{from: pillars.Social, target: pillars.MentalHealth},
		{from: pillars.Finances, ref: true},
	}
	for _, tc := range cases {
		c, _ := r.ForPillar(tc.from)
		found := false
		for _, rd := range c.Redirects {
			if tc.ref && rd.Referral != "" {
				found = true
			}
			if !tc.ref && rd.Target == tc.target {
				found = true
			}
		}
		if !found {
			t.Fatalf("%s redirects: want target=%s referral=%v", tc.from, tc.target, tc.ref)
		}
	}
}

func TestReasonText(t *testing.T) {
	rd := Redirect{Target: pillars.MentalHealth, Reason: "{trigger} is for your {to} coach, not {from}"}
	got := rd.ReasonText(pillars.Sleep, "panic attack*")
	want := "panic attack is for your Mental Health coach, not Sleep"
	if got != want {
		t.Fatalf("ReasonText: want=%q got=%q", want, got)
	}
}

func TestLoadFSRejectsInvalidContracts(t *testing.T) {
	base := fstest.MapFS{}
	for _, p := range pillars.All {
		base["c/"+string(p)+".yaml"] = &fstest.MapFile{Data: []byte(
			"id: " + string(p) + "_coach\nname: X\nkind: pillar\npillar: " + string(p) + "\nintro: hi\n")}
	}
	base["c/crisis.yaml"] = &fstest.MapFile{Data: []byte("id: crisis_handler\nname: S\nkind: crosscutting\nintro: help\n")}

	if _, err := LoadFS(base, "c"); err != nil {
		t.Fatalf("LoadFS(valid): %v", err)
	}

	cases := []struct {
		name string
		file string
		body string
		want string
	}{
		{name: "duplicate_pillar", file: "c/dup.yaml", body: "id: other\nname: X\nkind: pillar\npillar: sleep\nintro: hi\n", want: "claimed by both"},
		{name: "bad_redirect_target", file: "c/bad.yaml", body: "id: bad\nname: X\nkind: crosscutting\nintro: hi\nredirects:\n  - target: astrology\n    triggers: [x]\n    reason: y\n", want: "unknown pillar"},
		{name: "bad_item_kind", file: "c/bad.yaml", body: "id: bad\nname: X\nkind: crosscutting\nintro: hi\nitems:\n  - key: k\n    kind: poem\n    title: t\n    triggers: [x]\n", want: "unknown kind"},
		{name: "malformed_yaml", file: "c/bad.yaml", body: "id: [", want: "parse"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fsys := fstest.MapFS{}
			for k, v := range base {
				fsys[k] = v
			}
			fsys[tc.file] = &fstest.MapFile{Data: []byte(tc.body)}
			_, err := LoadFS(fsys, "c")
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("LoadFS: want error containing %q got=%v", tc.want, err)
			}
		})
	}
}

func TestRegistryRequiresCrisisHandler(t *testing.T) {
	var cs []Contract
	for _, p := range pillars.All {
		cs = append(cs, Contract{ID: string(p), Name: "n", Kind: KindPillar, Pillar: p, Intro: "i"})
	}
	if _, err := New(cs...); err == nil || !strings.Contains(err.Error(), CrisisHandlerID) {
		t.Fatalf("New without crisis handler: want error got=%v", err)
	}
}
