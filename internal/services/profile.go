package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yungbote/pillars-backend/internal/data/repos"
	types "github.com/yungbote/pillars-backend/internal/domain"
	"github.com/yungbote/pillars-backend/internal/modules/coach/pillars"
	"github.com/yungbote/pillars-backend/internal/platform/apierr"
	"github.com/yungbote/pillars-backend/internal/platform/dbctx"
	"github.com/yungbote/pillars-backend/internal/platform/logger"
)

// Profile is the view of a user the coaching pipeline needs. Unknown users
// get a free profile that is never persisted.
type Profile struct {
	UserID          string      `json:"userId"`
	DisplayName     string      `json:"displayName,omitempty"`
	Tier            string      `json:"tier"`
	Access          pillars.Set `json:"-"`
	AllowedPillars  []string    `json:"allowedPillars"`
	FriendCount     int         `json:"friendCount"`
	ConsentCoaching bool        `json:"consentCoaching"`
	Persisted       bool        `json:"persisted"`
}

type ProfileUpdate struct {
	DisplayName        *string  `json:"displayName,omitempty"`
	Tier               *string  `json:"tier,omitempty"`
	AllowedPillars     []string `json:"allowedPillars,omitempty"`
	FriendCount        *int     `json:"friendCount,omitempty"`
	ConsentCoaching    *bool    `json:"consentCoaching,omitempty"`
	ConsentDataSharing *bool    `json:"consentDataSharing,omitempty"`
}

type ProfileService interface {
	Get(dbc dbctx.Context, userID string) (*Profile, error)
	Update(ctx context.Context, userID string, upd ProfileUpdate) (*Profile, error)
}

type profileService struct {
	log            *logger.Logger
	userRepo       repos.UserRepo
	defaultPillars pillars.Set
}

func NewProfileService(log *logger.Logger, userRepo repos.UserRepo, defaultPillars []string) ProfileService {
	def := pillars.ParseSet(defaultPillars)
	if len(def) == 0 {
		def = pillars.NewSet(pillars.All...)
	}
	return &profileService{
		log:            log.With("service", "ProfileService"),
		userRepo:       userRepo,
		defaultPillars: def,
	}
}

func (s *profileService) Get(dbc dbctx.Context, userID string) (*Profile, error) {
	u, err := s.userRepo.GetByID(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return s.toProfile(userID, u), nil
}

func (s *profileService) Update(ctx context.Context, userID string, upd ProfileUpdate) (*Profile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apierr.BadRequest(ReasonMissingUserID, ErrValidation)
	}
	dbc := dbctx.Context{Ctx: ctx}
	u, err := s.userRepo.GetByID(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		u = &types.User{ID: userID, SubscriptionTier: types.TierFree, ConsentCoaching: true}
	}
	if upd.DisplayName != nil {
		u.DisplayName = strings.TrimSpace(*upd.DisplayName)
	}
	if upd.Tier != nil {
		tier := strings.ToLower(strings.TrimSpace(*upd.Tier))
		if tier != types.TierFree && tier != types.TierPremium {
			return nil, apierr.BadRequest(ReasonInvalidTier, fmt.Errorf("%w: tier %q", ErrValidation, *upd.Tier))
		}
		u.SubscriptionTier = tier
	}
	if upd.AllowedPillars != nil {
		set := pillars.NewSet()
		for _, raw := range upd.AllowedPillars {
			p, ok := pillars.Parse(raw)
			if !ok {
				return nil, apierr.BadRequest(ReasonInvalidPillar, fmt.Errorf("%w: pillar %q", ErrValidation, raw))
			}
			set[p] = struct{}{}
		}
		b, _ := json.Marshal(set.Strings())
		u.AllowedPillars = b
	}
	if upd.FriendCount != nil && *upd.FriendCount >= 0 {
		u.FriendCount = *upd.FriendCount
	}
	if upd.ConsentCoaching != nil {
		u.ConsentCoaching = *upd.ConsentCoaching
	}
	if upd.ConsentDataSharing != nil {
		u.ConsentDataSharing = *upd.ConsentDataSharing
	}
	if err := s.userRepo.Upsert(dbc, u); err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}
	return s.toProfile(userID, u), nil
}

// Premium unlocks every pillar. Free users get their stored allow list, or
// the configured default when none is stored.
func (s *profileService) toProfile(userID string, u *types.User) *Profile {
	if u == nil {
		return &Profile{
			UserID:          userID,
			Tier:            types.TierFree,
			Access:          s.defaultPillars,
			AllowedPillars:  s.defaultPillars.Strings(),
			ConsentCoaching: true,
		}
	}
	access := s.defaultPillars
	if u.SubscriptionTier == types.TierPremium {
		access = pillars.NewSet(pillars.All...)
	} else {
		var stored []string
		if len(u.AllowedPillars) > 0 {
			_ = json.Unmarshal(u.AllowedPillars, &stored)
		}
		if set := pillars.ParseSet(stored); len(set) > 0 {
			access = set
		}
	}
	tier := u.SubscriptionTier
	if tier == "" {
		tier = types.TierFree
	}
	return &Profile{
		UserID:          u.ID,
		DisplayName:     u.DisplayName,
		Tier:            tier,
		Access:          access,
		AllowedPillars:  access.Strings(),
		FriendCount:     u.FriendCount,
		ConsentCoaching: u.ConsentCoaching,
		Persisted:       true,
	}
}
