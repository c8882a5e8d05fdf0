package user

import (
	"context"
	"errors"
	"strings"

	"github.com/Aethermaxx/ChefCulina/internal/domain/ai"
	"github.com/Aethermaxx/ChefCulina/internal/domain/user"
	"github.com/Aethermaxx/ChefCulina/internal/ports/inbound"
	"github.com/Aethermaxx/ChefCulina/internal/ports/outbound"
	apperrors "github.com/Aethermaxx/ChefCulina/pkg/errors"
	"go.uber.org/zap"
)

// ProfileService implements inbound.ProfileService
type ProfileService struct {
	users        outbound.UserRepository
	cookbook     outbound.CookbookRepository
	stats        outbound.StatsRepository
	restrictions outbound.RestrictionRepository
	settings     outbound.SettingsRepository
	logger       *zap.Logger
}

var _ inbound.ProfileService = (*ProfileService)(nil)

// NewProfileService creates a new profile service
func NewProfileService(
	users outbound.UserRepository,
	cookbook outbound.CookbookRepository,
	stats outbound.StatsRepository,
	restrictions outbound.RestrictionRepository,
	settings outbound.SettingsRepository,
	logger *zap.Logger,
) *ProfileService {
	return &ProfileService{
		users:        users,
		cookbook:     cookbook,
		stats:        stats,
		restrictions: restrictions,
		settings:     settings,
		logger:       logger.Named("profile-service"),
	}
}

// Profile returns the user with cookbook statistics.
func (s *ProfileService) Profile(ctx context.Context, email string) (*inbound.ProfileDTO, error) {
	u, err := findUser(ctx, s.users, email)
	if err != nil {
		return nil, err
	}

	cooked, err := s.stats.CookedCount(ctx, u.Email)
	if err != nil {
		return nil, apperrors.NewDatabaseError("load cooked count", err)
	}
	saved, err := s.cookbook.List(ctx, u.Email)
	if err != nil {
		return nil, apperrors.NewDatabaseError("load cookbook", err)
	}
	restrictions, err := s.Restrictions(ctx, u.Email)
	if err != nil {
		return nil, err
	}

	return &inbound.ProfileDTO{
		User:         *u,
		IsGuest:      u.IsGuest(),
		CookedCount:  cooked,
		SavedCount:   len(saved),
		Restrictions: restrictions,
	}, nil
}

// Restrictions returns the stored list, never nil.
func (s *ProfileService) Restrictions(ctx context.Context, email string) (user.Restrictions, error) {
	list, err := s.restrictions.Get(ctx, email)
	if err != nil {
		return nil, apperrors.NewDatabaseError("load restrictions", err)
	}
	if list == nil {
		list = user.Restrictions{}
	}
	return list, nil
}

// AddRestriction appends item. Blank items and duplicates leave the list
// unchanged.
func (s *ProfileService) AddRestriction(ctx context.Context, email, item string) (user.Restrictions, error) {
	list, err := s.restrictions.Modify(ctx, email, func(r *user.Restrictions) error {
		r.Add(item)
		return nil
	})
	if err != nil {
		return nil, apperrors.NewDatabaseError("add restriction", err)
	}
	return list, nil
}

// RemoveRestriction deletes the item at index. With expected set the
// removal only happens if index still holds that item.
func (s *ProfileService) RemoveRestriction(ctx context.Context, email string, index int, expected *string) (user.Restrictions, error) {
	list, err := s.restrictions.Modify(ctx, email, func(r *user.Restrictions) error {
		_, err := r.RemoveAt(index, expected)
		return err
	})

	var stale *user.StaleIndexError
	switch {
	case err == nil:
		return list, nil
	case errors.Is(err, user.ErrRestrictionIndex):
		return nil, apperrors.NewBadRequestError("Restriction index out of range").WithMetadata("index", index)
	case errors.As(err, &stale):
		return nil, apperrors.NewStaleIndexError(stale.Index, stale.Expected, stale.Actual)
	default:
		return nil, apperrors.NewDatabaseError("remove restriction", err)
	}
}

// Settings returns the user's settings with masked keys.
func (s *ProfileService) Settings(ctx context.Context, email string) (ai.Settings, error) {
	if email == user.GuestEmail {
		return ai.DefaultSettings().Masked(), nil
	}
	settings, err := s.settings.Get(ctx, email)
	if err != nil {
		return ai.Settings{}, apperrors.NewDatabaseError("load settings", err)
	}
	return settings.Normalize().Masked(), nil
}

// UpdateSettings applies cmd. A key equal to the masked form of the stored
// key is the client echoing what it was shown and is ignored. The guest
// account is shared by every anonymous client and cannot store settings.
func (s *ProfileService) UpdateSettings(ctx context.Context, email string, cmd inbound.UpdateSettingsCommand) (ai.Settings, error) {
	if email == "" || email == user.GuestEmail {
		return ai.Settings{}, apperrors.NewUnauthorizedError("Sign in to save settings")
	}

	current, err := s.settings.Get(ctx, email)
	if err != nil {
		return ai.Settings{}, apperrors.NewDatabaseError("load settings", err)
	}
	next := current.Normalize()

	if cmd.Provider != nil {
		p := ai.Provider(strings.ToLower(strings.TrimSpace(*cmd.Provider)))
		if !p.Valid() {
			return ai.Settings{}, apperrors.NewBadRequestError("Unknown AI provider").WithMetadata("provider", *cmd.Provider)
		}
		next.Provider = p
	}

	if cmd.Language != nil {
		if !ai.ValidLanguage(*cmd.Language) {
			return ai.Settings{}, apperrors.NewBadRequestError("Unsupported language").WithMetadata("language", *cmd.Language)
		}
		next.Language = *cmd.Language
	}

	for p, key := range cmd.APIKeys {
		if !p.Valid() {
			return ai.Settings{}, apperrors.NewBadRequestError("Unknown AI provider").WithMetadata("provider", string(p))
		}
		key = strings.TrimSpace(key)
		switch {
		case key == "":
			delete(next.APIKeys, p)
		case key == ai.MaskKey(next.APIKeys[p]):
		default:
			next.APIKeys[p] = key
		}
	}

	if err := s.settings.Save(ctx, email, next); err != nil {
		return ai.Settings{}, apperrors.NewDatabaseError("save settings", err)
	}

	s.logger.Info("Settings updated",
		zap.String("provider", string(next.Provider)),
		zap.String("language", next.Language),
		zap.Int("keys", len(next.APIKeys)))
	return next.Masked(), nil
}
