package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/pillars-backend/internal/data/aggregates"
	"github.com/yungbote/pillars-backend/internal/data/repos"
	types "github.com/yungbote/pillars-backend/internal/domain"
	"github.com/yungbote/pillars-backend/internal/modules/coach/crisis"
	"github.com/yungbote/pillars-backend/internal/modules/coach/executor"
	"github.com/yungbote/pillars-backend/internal/modules/coach/memory"
	"github.com/yungbote/pillars-backend/internal/modules/coach/personas"
	"github.com/yungbote/pillars-backend/internal/modules/coach/pillars"
	"github.com/yungbote/pillars-backend/internal/modules/coach/routing"
	"github.com/yungbote/pillars-backend/internal/observability"
	"github.com/yungbote/pillars-backend/internal/platform/apierr"
	"github.com/yungbote/pillars-backend/internal/platform/ctxutil"
	"github.com/yungbote/pillars-backend/internal/platform/dbctx"
	"github.com/yungbote/pillars-backend/internal/platform/logger"
)

const (
	UnavailableReply = "Your coach is temporarily unavailable. Please try again in a moment."

	WarningMemoryStale = "memory_not_saved"

	defaultGenerationTimeout = 25 * time.Second
	defaultMaxMessageChars   = 4000
)

type ChatContext struct {
	Pillar          string `json:"pillar,omitempty"`
	SkipCrisisCheck bool   `json:"skipCrisisCheck,omitempty"`
}

type ChatRequest struct {
	UserID  string       `json:"userId"`
	Message string       `json:"message"`
	Context *ChatContext `json:"context,omitempty"`
}

type RoutingView struct {
	Pillar         pillars.ID     `json:"pillar"`
	Redirected     bool           `json:"redirected"`
	RedirectFrom   pillars.ID     `json:"redirectFrom,omitempty"`
	RedirectReason string         `json:"redirectReason,omitempty"`
	Referral       string         `json:"referral,omitempty"`
	TargetLocked   bool           `json:"targetLocked,omitempty"`
	LockedTarget   pillars.ID     `json:"lockedTarget,omitempty"`
	Source         routing.Source `json:"source"`
	Assists        []string       `json:"assists,omitempty"`
}

type ChatResponse struct {
	OK           bool              `json:"ok"`
	IsCrisis     bool              `json:"isCrisis"`
	Reply        string            `json:"reply,omitempty"`
	PersonaID    string            `json:"personaId,omitempty"`
	ItemsCreated []*types.Item     `json:"itemsCreated"`
	Routing      *RoutingView      `json:"routing,omitempty"`
	Severity     crisis.Severity   `json:"severity,omitempty"`
	CrisisType   crisis.Type       `json:"crisisType,omitempty"`
	Resources    []crisis.Resource `json:"resources,omitempty"`
	Notice       string            `json:"notice,omitempty"`
	Unavailable  bool              `json:"unavailable,omitempty"`
	TopicsTaught []string          `json:"topicsTaught,omitempty"`
	Rewards      *TurnRewards      `json:"rewards,omitempty"`
	Warnings     []string          `json:"warnings,omitempty"`
}

type ChatConfig struct {
	GenerationTimeout time.Duration
	MaxMessageChars   int
}

// ChatService is the orchestrator for one inbound message.
type ChatService interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

type ChatDeps struct {
	Log          *logger.Logger
	Tx           aggregates.TxRunner
	Registry     *personas.Registry
	Gate         *crisis.Gate
	Router       *routing.Router
	Executor     *executor.Executor
	Memory       *memory.Store
	Profiles     ProfileService
	Gamification GamificationService
	Items        repos.ItemRepo
	PillarStates repos.PillarStateRepo
	Turns        repos.ChatTurnRepo
	CrisisAudit  repos.CrisisAuditRepo
	GameProfiles repos.GamificationProfileRepo
}

type chatService struct {
	ChatDeps
	log *logger.Logger
	cfg ChatConfig
}

func NewChatService(deps ChatDeps, cfg ChatConfig) ChatService {
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = defaultGenerationTimeout
	}
	if cfg.MaxMessageChars <= 0 {
		cfg.MaxMessageChars = defaultMaxMessageChars
	}
	return &chatService{ChatDeps: deps, log: deps.Log.With("service", "ChatService"), cfg: cfg}
}

func (s *chatService) Chat(ctx context.Context, req ChatRequest) (resp *ChatResponse, err error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, observability.SpanChatTurn)
	outcome := "reply"
	defer func() {
		if err != nil {
			outcome = "error"
			if ae := apierr.From(err); ae.Status < 500 {
				outcome = "rejected"
			}
		}
		span.SetAttributes(attribute.String(observability.AttrOutcome, outcome))
		observability.EndSpan(span, err)
		observability.Current().ObserveTurn(outcome, time.Since(start))
	}()

	userID := strings.TrimSpace(req.UserID)
	msg := strings.TrimSpace(req.Message)
	if userID == "" {
		return nil, apierr.BadRequest(ReasonMissingUserID, fmt.Errorf("%w: userId is required", ErrValidation))
	}
	if msg == "" {
		return nil, apierr.BadRequest(ReasonMissingMessage, fmt.Errorf("%w: message is required", ErrValidation))
	}
	if len([]rune(msg)) > s.cfg.MaxMessageChars {
		return nil, apierr.BadRequest(ReasonMessageTooLong, fmt.Errorf("%w: message exceeds %d characters", ErrValidation, s.cfg.MaxMessageChars))
	}
	var explicit pillars.ID
	skipCrisis := false
	if req.Context != nil {
		skipCrisis = req.Context.SkipCrisisCheck
		if raw := strings.TrimSpace(req.Context.Pillar); raw != "" {
			p, ok := pillars.Parse(raw)
			if !ok {
				return nil, apierr.BadRequest(ReasonInvalidPillar, fmt.Errorf("%w: unknown pillar %q", ErrValidation, raw))
			}
			explicit = p
		}
	}

	// Only an explicit pillar needs the profile ahead of the gate. A failed
	// lookup must not keep the message from being triaged.
	var (
		profile    *Profile
		profileErr error
	)
	if explicit != "" {
		profile, profileErr = s.Profiles.Get(dbctx.Context{Ctx: ctx}, userID)
		if profileErr == nil && !profile.Access.Has(explicit) {
			return nil, apierr.Forbidden(ReasonLockedPillar, fmt.Errorf("%w: %s", ErrEntitlement, explicit))
		}
	}

	var check crisis.CheckResult
	if skipCrisis {
		s.audit(ctx, userID, msg, crisis.CheckResult{Severity: crisis.SeverityNone}, true)
	} else {
		check = s.checkCrisis(ctx, userID, msg)
		if check.IsCrisis {
			outcome = "crisis"
			return s.crisisResponse(check), nil
		}
	}

	if profile == nil && profileErr == nil {
		profile, profileErr = s.Profiles.Get(dbctx.Context{Ctx: ctx}, userID)
	}
	if profileErr != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		outcome = "unavailable"
		return s.degraded(ctx, userID, explicit, check, fmt.Errorf("load profile: %w", profileErr)), nil
	}

	var (
		mem    memory.UserMemory
		states []*types.PillarState
		gprof  *types.GamificationProfile
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		mem, err = s.Memory.Load(dbctx.Context{Ctx: gctx}, userID)
		return err
	})
	g.Go(func() error {
		var err error
		states, err = s.PillarStates.ListByUser(dbctx.Context{Ctx: gctx}, userID)
		return err
	})
	g.Go(func() error {
		var err error
		gprof, err = s.GameProfiles.Get(dbctx.Context{Ctx: gctx}, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		outcome = "unavailable"
		return s.degraded(ctx, userID, explicit, check, fmt.Errorf("preload: %w", err)), nil
	}

	decision, err := s.route(ctx, routing.Input{
		UserID:   userID,
		Message:  msg,
		Explicit: explicit,
		Active:   mem.ActivePillar(),
		Access:   profile.Access,
	})
	if err != nil {
		return nil, err
	}
	contract, ok := s.Registry.Get(decision.TargetPersonaID)
	if !ok {
		return nil, fmt.Errorf("no persona %q", decision.TargetPersonaID)
	}
	var assists []personas.Contract
	for _, id := range decision.Assists {
		if a, ok := s.Registry.Get(id); ok {
			assists = append(assists, a)
		}
	}
	existing, err := s.Items.ListByUser(dbctx.Context{Ctx: ctx}, userID, string(decision.Pillar), 200)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	titles := make([]string, 0, len(existing))
	for _, it := range existing {
		if it.Status == types.ItemStatusActive {
			titles = append(titles, it.Title)
		}
	}

	pillarMem := mem.For(decision.Pillar)
	result, genErr := s.generate(ctx, executor.Input{
		Contract:       contract,
		Assists:        assists,
		Decision:       decision,
		Message:        msg,
		Memory:         pillarMem,
		Profile:        profileSummary(profile, states, gprof),
		ExistingTitles: titles,
	})
	if genErr != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		outcome = "unavailable"
		return s.unavailable(decision, check), nil
	}

	// Nothing has been written yet; an abandoned request stops here.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp, err = s.commit(ctx, userID, msg, decision, result, check, start)
	if err != nil {
		return nil, err
	}
	if decision.Redirected() {
		outcome = "redirected"
	}
	return resp, nil
}

func (s *chatService) checkCrisis(ctx context.Context, userID, msg string) crisis.CheckResult {
	ctx, span := observability.StartSpan(ctx, observability.SpanCrisisCheck)
	check := s.Gate.Check(ctx, msg)
	span.SetAttributes(attribute.String(observability.AttrSeverity, string(check.Severity)))
	var err error
	if check.ClassifierFailed {
		err = ErrClassifierFailure
		s.log.WithContext(ctx).Warn("crisis classifier failed, treating as moderate", "user_id", userID)
	}
	observability.EndSpan(span, err)
	observability.Current().ObserveCrisisCheck(string(check.Severity), check.ClassifierFailed)
	if check.Severity != crisis.SeverityNone || check.ClassifierFailed {
		s.audit(ctx, userID, msg, check, false)
	}
	return check
}

// audit records the check outcome without the message text. A failed audit
// write never blocks the turn.
func (s *chatService) audit(ctx context.Context, userID, msg string, check crisis.CheckResult, skipped bool) {
	row := &types.CrisisAudit{
		UserID:           userID,
		Severity:         string(check.Severity),
		Type:             string(check.Type),
		Skipped:          skipped,
		ClassifierFailed: check.ClassifierFailed,
		MessageLength:    len([]rune(msg)),
	}
	if td := ctxutil.GetTraceData(ctx); td != nil {
		row.RequestID = td.RequestID
	}
	if row.Severity == "" {
		row.Severity = string(crisis.SeverityNone)
	}
	if err := s.CrisisAudit.Create(dbctx.Context{Ctx: context.WithoutCancel(ctx)}, row); err != nil {
		s.log.WithContext(ctx).Error("crisis audit write failed", "user_id", userID, "error", err)
	}
}

func (s *chatService) crisisResponse(check crisis.CheckResult) *ChatResponse {
	reply := check.Notice
	if h, ok := s.Registry.Get(personas.CrisisHandlerID); ok {
		reply = h.Intro
	}
	return &ChatResponse{
		OK:           true,
		IsCrisis:     true,
		Reply:        reply,
		PersonaID:    personas.CrisisHandlerID,
		ItemsCreated: []*types.Item{},
		Severity:     check.Severity,
		CrisisType:   check.Type,
		Resources:    check.Resources,
	}
}

func (s *chatService) route(ctx context.Context, in routing.Input) (routing.Decision, error) {
	_, span := observability.StartSpan(ctx, observability.SpanRoute)
	d, err := s.Router.Route(in)
	if err == nil && d.Locked {
		err = fmt.Errorf("%w: %s", ErrEntitlement, d.Pillar)
	}
	if errors.Is(err, routing.ErrNoEntitledPillar) {
		err = fmt.Errorf("%w: %v", ErrEntitlement, err)
	}
	span.SetAttributes(
		attribute.String(observability.AttrPillar, string(d.Pillar)),
		attribute.Bool(observability.AttrRedirected, d.Redirected()),
	)
	observability.EndSpan(span, err)
	if err != nil {
		if errors.Is(err, ErrEntitlement) {
			observability.Current().ObserveRoute(string(d.Pillar), false, true)
			return d, apierr.Forbidden(ReasonLockedPillar, err)
		}
		return d, err
	}
	observability.Current().ObserveRoute(string(d.Pillar), d.Redirected(), d.TargetLocked)
	return d, nil
}

// generate runs the executor under the fixed ceiling.
func (s *chatService) generate(ctx context.Context, in executor.Input) (executor.Result, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanGenerate,
		attribute.String(observability.AttrPersona, in.Contract.ID))
	genCtx, cancel := context.WithTimeout(ctx, s.cfg.GenerationTimeout)
	defer cancel()
	res, err := s.Executor.Execute(genCtx, in)
	if err != nil && errors.Is(genCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		err = fmt.Errorf("%w: %v", ErrGenerationTimeout, err)
		observability.Current().ObserveGeneration(in.Contract.ID, "timeout")
	}
	observability.EndSpan(span, err)
	if err != nil {
		s.log.WithContext(ctx).Warn("persona generation failed", "persona", in.Contract.ID, "error", err)
	}
	return res, err
}

func (s *chatService) unavailable(d routing.Decision, check crisis.CheckResult) *ChatResponse {
	return &ChatResponse{
		OK:           true,
		Reply:        UnavailableReply,
		PersonaID:    d.TargetPersonaID,
		ItemsCreated: []*types.Item{},
		Routing:      routingView(d),
		Unavailable:  true,
		Severity:     moderateOnly(check.Severity),
		Resources:    moderateResources(check),
		Notice:       check.Notice,
	}
}

// degraded answers with the unavailable reply when state needed for routing
// could not be read. Gate results still ride along.
func (s *chatService) degraded(ctx context.Context, userID string, explicit pillars.ID, check crisis.CheckResult, cause error) *ChatResponse {
	s.log.WithContext(ctx).Error("turn degraded", "user_id", userID, "error", cause)
	d := routing.Decision{Pillar: explicit}
	if c, ok := s.Registry.ForPillar(explicit); ok {
		d.TargetPersonaID = c.ID
	}
	resp := s.unavailable(d, check)
	if explicit == "" {
		resp.Routing = nil
	}
	return resp
}

// commit writes items, pillar state, memory, the turn row and gamification
// effects in one transaction.
func (s *chatService) commit(ctx context.Context, userID, msg string, d routing.Decision, res executor.Result, check crisis.CheckResult, start time.Time) (*ChatResponse, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanCommit)
	var (
		created  []*types.Item
		rewards  *TurnRewards
		warnings []string
	)
	now := time.Now().UTC()
	err := s.Tx.InTx(ctx, func(dbc dbctx.Context) error {
		created = created[:0]
		warnings = warnings[:0]
		warnings = warnings[:0]
		rows := make([]*types.Item, 0, len(res.Items))
		for _, it := range res.Items {
			rows = append(rows, &types.Item{
				UserID:      userID,
				Pillar:      string(it.Pillar),
				Kind:        string(it.Kind),
				Title:       it.Title,
				Details:     it.Details,
				TemplateKey: it.TemplateKey,
				PersonaID:   it.PersonaID,
			})
		}
		var err error
		created, err = s.Items.Create(dbc, rows)
		if err != nil {
			return fmt.Errorf("create items: %w", err)
		}
		if err := s.foldIntoPillarState(dbc, userID, res.Pillar, created); err != nil {
			return err
		}

		patch := memory.Patch{
			Pillar:       res.Pillar,
			TopicsTaught: res.TopicsTaught,
			Turns: []memory.Turn{
				{Role: memory.RoleUser, Content: msg, At: now},
				{Role: memory.RoleAssistant, Content: res.Reply, PersonaID: res.PersonaID, At: now},
			},
			At: now,
		}
		kinds := make([]personas.ItemKind, 0, len(created))
		for _, it := range created {
			patch.ItemIDs = append(patch.ItemIDs, it.ID.String())
			if it.TemplateKey != "" {
				patch.ItemKeys = append(patch.ItemKeys, it.TemplateKey)
			}
			kinds = append(kinds, personas.ItemKind(it.Kind))
		}
		if err := s.Memory.Save(dbc, userID, patch); err != nil {
			if !errors.Is(err, memory.ErrWriteConflict) {
				return fmt.Errorf("save memory: %w", err)
			}
			s.log.Warn("memory write conflict, continuing", "user_id", userID, "pillar", res.Pillar)
			warnings = append(warnings, WarningMemoryStale)
		}

		rewards, err = s.Gamification.Apply(dbc, userID, OutcomeFor(s.Gamification.Today(), res.Pillar, kinds, len(res.TopicsTaught)))
		if err != nil {
			return fmt.Errorf("apply gamification: %w", err)
		}

		trace, _ := json.Marshal(map[string]any{
			"topics":   res.TopicsTaught,
			"assists":  d.Assists,
			"source":   d.Source,
			"warnings": warnings,
		})
		turn := &types.ChatTurn{
			UserID:       userID,
			Pillar:       string(res.Pillar),
			PersonaID:    res.PersonaID,
			Outcome:      types.TurnOutcomeReply,
			RedirectFrom: string(d.RedirectFrom),
			ItemsCreated: len(created),
			Points:       rewards.PointsAwarded,
			Trace:        trace,
			DurationMS:   time.Since(start).Milliseconds(),
		}
		if d.TargetLocked {
			turn.RedirectFrom = ""
		}
		if td := ctxutil.GetTraceData(ctx); td != nil {
			turn.RequestID = td.RequestID
		}
		if err := s.Turns.Create(dbc, turn); err != nil {
			return fmt.Errorf("record turn: %w", err)
		}
		return nil
	})
	observability.EndSpan(span, err)
	if err != nil {
		return nil, err
	}
	if created == nil {
		created = []*types.Item{}
	}
	out := &ChatResponse{
		OK:           true,
		Reply:        res.Reply,
		PersonaID:    res.PersonaID,
		ItemsCreated: created,
		Routing:      routingView(d),
		Severity:     moderateOnly(check.Severity),
		Resources:    moderateResources(check),
		Notice:       check.Notice,
		TopicsTaught: res.TopicsTaught,
		Rewards:      rewards,
	}
	if len(warnings) > 0 {
		out.Warnings = warnings
	}
	return out, nil
}

// foldIntoPillarState mirrors new items into the pillar's plan view.
func (s *chatService) foldIntoPillarState(dbc dbctx.Context, userID string, p pillars.ID, items []*types.Item) error {
	if len(items) == 0 {
		return nil
	}
	st, err := s.PillarStates.GetOrCreate(dbc, userID, string(p))
	if err != nil {
		return fmt.Errorf("load pillar state: %w", err)
	}
	habits := decodeList(st.DailyHabits)
	goals := decodeList(st.WeeklyGoals)
	var plan types.PillarPlan
	_ = json.Unmarshal(st.Plan, &plan)
	for _, it := range items {
		switch personas.ItemKind(it.Kind) {
		case personas.ItemHabit:
			habits = appendUnique(habits, it.Title)
		case personas.ItemSmartGoal:
			goals = appendUnique(goals, it.Title)
		case personas.ItemLifePlan:
			plan.LongTerm = appendUnique(plan.LongTerm, it.Title)
		case personas.ItemMilestone:
			plan.ShortTerm = appendUnique(plan.ShortTerm, it.Title)
		}
	}
	st.DailyHabits = encodeList(habits)
	st.WeeklyGoals = encodeList(goals)
	if plan.ShortTerm == nil {
		plan.ShortTerm = []string{}
	}
	if plan.LongTerm == nil {
		plan.LongTerm = []string{}
	}
	if plan.CoachRecommendations == nil {
		plan.CoachRecommendations = []string{}
	}
	st.Plan, _ = json.Marshal(plan)
	if err := s.PillarStates.Save(dbc, st); err != nil {
		return fmt.Errorf("save pillar state: %w", err)
	}
	return nil
}

func routingView(d routing.Decision) *RoutingView {
	v := &RoutingView{
		Pillar:         d.Pillar,
		Redirected:     d.Redirected(),
		RedirectReason: d.RedirectReason,
		Referral:       d.Referral,
		TargetLocked:   d.TargetLocked,
		LockedTarget:   d.LockedTarget,
		Source:         d.Source,
		Assists:        d.Assists,
	}
	if d.Redirected() {
		v.RedirectFrom = d.RedirectFrom
	}
	return v
}

func profileSummary(p *Profile, states []*types.PillarState, gp *types.GamificationProfile) executor.ProfileSummary {
	out := executor.ProfileSummary{DisplayName: p.DisplayName, Tier: p.Tier}
	if len(states) > 0 {
		out.PillarScores = make(map[pillars.ID]int, len(states))
		for _, st := range states {
			out.PillarScores[pillars.ID(st.Pillar)] = st.Score
		}
	}
	if gp != nil {
		out.CurrentStreak = gp.CurrentStreak
	}
	return out
}

func moderateOnly(sev crisis.Severity) crisis.Severity {
	if sev == crisis.SeverityNone {
		return ""
	}
	return sev
}

func moderateResources(check crisis.CheckResult) []crisis.Resource {
	if check.Notice == "" {
		return nil
	}
	return check.Resources
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if strings.EqualFold(s, v) {
			return list
		}
	}
	return append(list, v)
}
