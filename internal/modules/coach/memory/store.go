package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/yungbote/pillars-backend/internal/data/repos"
	types "github.com/yungbote/pillars-backend/internal/domain"
	"github.com/yungbote/pillars-backend/internal/modules/coach/pillars"
	"github.com/yungbote/pillars-backend/internal/observability"
	"github.com/yungbote/pillars-backend/internal/platform/dbctx"
	"github.com/yungbote/pillars-backend/internal/platform/logger"
)

// ErrWriteConflict is returned when a versioned save loses twice in a row.
// Callers treat it as a warning; the turn still succeeds.
var ErrWriteConflict = errors.New("memory write conflict")

const DefaultHistoryCap = 20

type Store struct {
	repo       repos.ConversationMemoryRepo
	locker     Locker
	historyCap int
	log        *logger.Logger
}

func NewStore(repo repos.ConversationMemoryRepo, locker Locker, historyCap int, log *logger.Logger) *Store {
	if locker == nil {
		locker = NewLocalLocker()
	}
	if historyCap <= 0 {
		historyCap = DefaultHistoryCap
	}
	return &Store{repo: repo, locker: locker, historyCap: historyCap, log: log.With("service", "MemoryStore")}
}

func (s *Store) Load(dbc dbctx.Context, userID string) (UserMemory, error) {
	rows, err := s.repo.ListByUser(dbc, userID)
	if err != nil {
		return UserMemory{}, fmt.Errorf("load memory: %w", err)
	}
	out := UserMemory{UserID: userID, Pillars: make(map[pillars.ID]ConversationMemory, len(rows))}
	for _, row := range rows {
		p, ok := pillars.Parse(row.Pillar)
		if !ok {
			s.log.Warn("skipping memory row with unknown pillar", "pillar", row.Pillar, "user_id", userID)
			continue
		}
		out.Pillars[p] = fromRow(row)
	}
	return out, nil
}

// Save merges each patch into its pillar row. Patches for different pillars
// never touch each other's rows. Conflicts from all pillars are joined.
func (s *Store) Save(dbc dbctx.Context, userID string, patches ...Patch) error {
	var errs []error
	for _, p := range patches {
		if p.empty() {
			continue
		}
		if err := s.savePillar(dbc, userID, p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Store) UpdateConversationHistory(dbc dbctx.Context, userID string, pillar pillars.ID, turns ...Turn) error {
	at := time.Now().UTC()
	if n := len(turns); n > 0 && !turns[n-1].At.IsZero() {
		at = turns[n-1].At
	}
	return s.Save(dbc, userID, Patch{Pillar: pillar, Turns: turns, At: at})
}

// Reset deletes one pillar's memory on explicit user request.
func (s *Store) Reset(dbc dbctx.Context, userID string, pillar pillars.ID) (bool, error) {
	unlock, err := s.locker.Lock(dbc.Ctx, lockKey(userID, pillar))
	if err != nil {
		return false, fmt.Errorf("lock memory: %w", err)
	}
	defer unlock()
	deleted, err := s.repo.Delete(dbc, userID, string(pillar))
	if err != nil {
		return false, fmt.Errorf("reset memory: %w", err)
	}
	s.log.Info("memory reset", "user_id", userID, "pillar", pillar, "deleted", deleted)
	return deleted, nil
}

// savePillar holds the (user, pillar) lock only around the read-merge-write,
// which can end before the caller's transaction commits. The version
// compare-and-set is what serializes concurrent turns; the lock just keeps
// writers in one process from racing into needless conflicts.
func (s *Store) savePillar(dbc dbctx.Context, userID string, p Patch) error {
	unlock, err := s.locker.Lock(dbc.Ctx, lockKey(userID, p.Pillar))
	if err != nil {
		return fmt.Errorf("lock memory: %w", err)
	}
	defer unlock()

	for attempt := 0; attempt < 2; attempt++ {
		row, err := s.repo.Get(dbc, userID, string(p.Pillar))
		if err != nil {
			return fmt.Errorf("load memory %s: %w", p.Pillar, err)
		}
		var ok bool
		if row == nil {
			merged := ConversationMemory{}.Merge(p, s.historyCap)
			ok, err = s.repo.Insert(dbc, toRow(userID, merged, nil))
		} else {
			merged := fromRow(row).Merge(p, s.historyCap)
			ok, err = s.repo.UpdateVersioned(dbc, toRow(userID, merged, row), row.Version)
		}
		if err != nil {
			return fmt.Errorf("save memory %s: %w", p.Pillar, err)
		}
		if ok {
			return nil
		}
		observability.Current().ObserveMemoryConflict()
		s.log.Debug("memory version conflict", "user_id", userID, "pillar", p.Pillar, "attempt", attempt)
	}
	s.log.Warn("memory write conflict after retry", "user_id", userID, "pillar", p.Pillar)
	return fmt.Errorf("%w: %s", ErrWriteConflict, p.Pillar)
}

func lockKey(userID string, p pillars.ID) string {
	return "memory:" + userID + ":" + string(p)
}

func fromRow(row *types.ConversationMemory) ConversationMemory {
	p, _ := pillars.Parse(row.Pillar)
	m := ConversationMemory{
		Pillar:            p,
		TopicsTaught:      decodeStrings(row.TopicsTaught),
		ItemIDs:           decodeStrings(row.ItemIDs),
		ItemKeys:          decodeStrings(row.ItemKeys),
		LastInteractionAt: row.LastInteractionAt,
		Version:           row.Version,
	}
	var hist []types.MemoryTurn
	if len(row.History) > 0 {
		_ = json.Unmarshal(row.History, &hist)
	}
	for _, h := range hist {
		m.History = append(m.History, Turn{Role: h.Role, Content: h.Content, PersonaID: h.PersonaID, At: h.At})
	}
	return m
}

func toRow(userID string, m ConversationMemory, existing *types.ConversationMemory) *types.ConversationMemory {
	hist := make([]types.MemoryTurn, 0, len(m.History))
	for _, h := range m.History {
		hist = append(hist, types.MemoryTurn{Role: h.Role, Content: h.Content, PersonaID: h.PersonaID, At: h.At})
	}
	row := &types.ConversationMemory{
		UserID:            userID,
		Pillar:            string(m.Pillar),
		TopicsTaught:      mustJSON(m.TopicsTaught),
		ItemIDs:           mustJSON(m.ItemIDs),
		ItemKeys:          mustJSON(m.ItemKeys),
		History:           mustJSON(hist),
		LastInteractionAt: m.LastInteractionAt,
	}
	if row.LastInteractionAt.IsZero() {
		row.LastInteractionAt = time.Now().UTC()
	}
	if existing != nil {
		row.ID = existing.ID
		row.Version = existing.Version
		row.CreatedAt = existing.CreatedAt
	}
	return row
}

func decodeStrings(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func mustJSON(v any) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil || string(b) == "null" {
		return datatypes.JSON([]byte("[]"))
	}
	return datatypes.JSON(b)
}
