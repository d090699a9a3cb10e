package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/pillars-backend/internal/modules/coach/memory"
	"github.com/yungbote/pillars-backend/internal/modules/coach/pillars"
	"github.com/yungbote/pillars-backend/internal/platform/apierr"
	"github.com/yungbote/pillars-backend/internal/platform/dbctx"
	"github.com/yungbote/pillars-backend/internal/platform/logger"
)

// MemorySummary is the client view of one pillar's memory. History content
// stays server side; only its length is exposed.
type MemorySummary struct {
	Pillar            pillars.ID `json:"pillar"`
	TopicsTaught      []string   `json:"topicsTaught"`
	ItemIDs           []string   `json:"itemIds"`
	HistoryTurns      int        `json:"historyTurns"`
	LastInteractionAt string     `json:"lastInteractionAt,omitempty"`
}

type MemoryView struct {
	UserID       string          `json:"userId"`
	ActivePillar pillars.ID      `json:"activePillar,omitempty"`
	Pillars      []MemorySummary `json:"pillars"`
}

type MemoryService interface {
	View(ctx context.Context, userID string) (*MemoryView, error)
	Reset(ctx context.Context, userID, pillar string) (bool, error)
}

type memoryService struct {
	log   *logger.Logger
	store *memory.Store
}

func NewMemoryService(log *logger.Logger, store *memory.Store) MemoryService {
	return &memoryService{log: log.With("service", "MemoryService"), store: store}
}

func (s *memoryService) View(ctx context.Context, userID string) (*MemoryView, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apierr.BadRequest(ReasonMissingUserID, fmt.Errorf("%w: userId is required", ErrValidation))
	}
	um, err := s.store.Load(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, err
	}
	out := &MemoryView{UserID: userID, ActivePillar: um.ActivePillar(), Pillars: []MemorySummary{}}
	for _, p := range pillars.All {
		m, ok := um.Pillars[p]
		if !ok {
			continue
		}
		sum := MemorySummary{
			Pillar:       p,
			TopicsTaught: nonNil(m.TopicsTaught),
			ItemIDs:      nonNil(m.ItemIDs),
			HistoryTurns: len(m.History),
		}
		if !m.LastInteractionAt.IsZero() {
			sum.LastInteractionAt = m.LastInteractionAt.UTC().Format("2006-01-02T15:04:05Z")
		}
		out.Pillars = append(out.Pillars, sum)
	}
	return out, nil
}

func (s *memoryService) Reset(ctx context.Context, userID, pillar string) (bool, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false, apierr.BadRequest(ReasonMissingUserID, fmt.Errorf("%w: userId is required", ErrValidation))
	}
	p, ok := pillars.Parse(pillar)
	if !ok {
		return false, apierr.BadRequest(ReasonInvalidPillar, fmt.Errorf("%w: unknown pillar %q", ErrValidation, pillar))
	}
	return s.store.Reset(dbctx.Context{Ctx: ctx}, userID, p)
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
