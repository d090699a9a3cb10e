package executor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yungbote/pillars-backend/internal/modules/coach/pillars"
)

const (
	topicsMarkerOpen  = "[[topics:"
	topicsMarkerClose = "]]"
)

// ProfileSummary is the slice of the user profile a persona may see.
type ProfileSummary struct {
	DisplayName   string
	Tier          string
	PillarScores  map[pillars.ID]int
	CurrentStreak int
}

func (p ProfileSummary) String() string {
	var parts []string
	if p.DisplayName != "" {
		parts = append(parts, "name "+p.DisplayName)
	}
	if p.Tier != "" {
		parts = append(parts, "plan "+p.Tier)
	}
	if len(p.PillarScores) > 0 {
		ids := make([]string, 0, len(p.PillarScores))
		for id := range p.PillarScores {
			ids = append(ids, string(id))
		}
		sort.Strings(ids)
		scores := make([]string, 0, len(ids))
		for _, id := range ids {
			scores = append(scores, fmt.Sprintf("%s %d", id, p.PillarScores[pillars.ID(id)]))
		}
		parts = append(parts, "scores: "+strings.Join(scores, ", "))
	}
	if p.CurrentStreak > 0 {
		parts = append(parts, fmt.Sprintf("streak %d days", p.CurrentStreak))
	}
	if len(parts) == 0 {
		return "new user"
	}
	return strings.Join(parts, "; ")
}

// BuildPrompt assembles identity, tone, rules, anti-repetition constraints,
// redirect context and recent history.
func BuildPrompt(in Input, c Constraints, historyTurns int) Prompt {
	var sys strings.Builder
	fmt.Fprintf(&sys, "You are %s, the %s coach. %s\n", in.Contract.Name, in.Contract.Pillar.DisplayName(), in.Contract.Intro)
	if in.Contract.Tone != "" {
		fmt.Fprintf(&sys, "Tone: %s\n", in.Contract.Tone)
	}
	sys.WriteString("Rules:\n")
	for _, r := range in.Contract.Rules {
		fmt.Fprintf(&sys, "- %s\n", r)
	}
	sys.WriteString("- You coach; you never diagnose or treat any condition.\n")
	if len(c.AvoidTopics) > 0 {
		fmt.Fprintf(&sys, "- Already taught to this user, do not teach again: %s.\n", strings.Join(c.AvoidTopics, ", "))
	}
	if len(c.Offer) > 0 {
		sys.WriteString("- Teach at most one or two of these new topics:\n")
		for _, t := range c.Offer {
			fmt.Fprintf(&sys, "  - %s: %s\n", t.Tag, t.Tip)
		}
	}
	if c.MaxWords > 0 {
		fmt.Fprintf(&sys, "- Keep the reply under %d words.\n", c.MaxWords)
	}
	for _, a := range in.Assists {
		fmt.Fprintf(&sys, "Also acting as %s: %s\n", a.Name, a.Intro)
		for _, r := range a.Rules {
			fmt.Fprintf(&sys, "- %s\n", r)
		}
	}
	d := in.Decision
	switch {
	case d.Redirected():
		fmt.Fprintf(&sys, "The user was handed over from the %s coach because %s. A handoff sentence is already shown; do not repeat it.\n",
			d.RedirectFrom.DisplayName(), d.RedirectReason)
	case d.TargetLocked:
		fmt.Fprintf(&sys, "Part of this message belongs to the %s coach, which the user's plan does not include. Help only with the %s side.\n",
			d.LockedTarget.DisplayName(), in.Contract.Pillar.DisplayName())
	case d.Referral != "":
		fmt.Fprintf(&sys, "Part of this message needs %s. Do not give that advice yourself.\n", d.Referral)
	}
	fmt.Fprintf(&sys, "End with one line %s <comma separated tags you taught> %s\n", topicsMarkerOpen, topicsMarkerClose)

	var user strings.Builder
	fmt.Fprintf(&user, "User profile: %s\n", in.Profile.String())
	if recent := in.Memory.Recent(historyTurns); len(recent) > 0 {
		user.WriteString("Recent conversation:\n")
		for _, t := range recent {
			fmt.Fprintf(&user, "%s: %s\n", t.Role, t.Content)
		}
	}
	fmt.Fprintf(&user, "Message: %s", in.Message)
	return Prompt{System: sys.String(), User: user.String()}
}

func formatTopicsMarker(tags []string) string {
	return topicsMarkerOpen + " " + strings.Join(tags, ", ") + " " + topicsMarkerClose
}

// splitTopicsMarker removes the trailing marker line and returns its tags.
func splitTopicsMarker(raw string) (string, []string) {
	i := strings.LastIndex(raw, topicsMarkerOpen)
	if i < 0 {
		return strings.TrimSpace(raw), nil
	}
	rest := raw[i+len(topicsMarkerOpen):]
	j := strings.Index(rest, topicsMarkerClose)
	if j < 0 {
		return strings.TrimSpace(raw[:i]), nil
	}
	var tags []string
	for _, t := range strings.Split(rest[:j], ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	reply := strings.TrimSpace(raw[:i] + rest[j+len(topicsMarkerClose):])
	return reply, tags
}
