package services

import (
	"errors"

	"github.com/yungbote/pillars-backend/internal/modules/coach/executor"
	"github.com/yungbote/pillars-backend/internal/modules/coach/memory"
)

// Error taxonomy for a chat turn. Validation and entitlement errors are
// terminal and surface as apierr values; the rest degrade inside the turn.
var (
	ErrValidation          = errors.New("validation failed")
	ErrEntitlement         = errors.New("pillar not included in plan")
	ErrClassifierFailure   = errors.New("crisis classifier failed")
	ErrGenerationTimeout   = errors.New("generation timed out")
	ErrMemoryWriteConflict = memory.ErrWriteConflict
	ErrUntaggedItem        = executor.ErrUntaggedItem
)

// Reason codes returned in error envelopes.
const (
	ReasonMissingUserID  = "missing_userId"
	ReasonMissingMessage = "missing_message"
	ReasonMessageTooLong = "message_too_long"
	ReasonInvalidPillar  = "invalid_pillar"
	ReasonInvalidScore   = "invalid_score"
	ReasonInvalidID      = "invalid_id"
	ReasonLockedPillar   = "locked_pillar"
	ReasonNoFreezes      = "no_freezes"
	ReasonNotFound       = "not_found"
	ReasonInvalidTier    = "invalid_tier"
)
