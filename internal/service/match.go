package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/volleyscore/scoreboard/internal/domain"
	"github.com/volleyscore/scoreboard/internal/guard"
	"github.com/volleyscore/scoreboard/internal/media"
	"github.com/volleyscore/scoreboard/internal/metrics"
	"github.com/volleyscore/scoreboard/internal/projection"
	"github.com/volleyscore/scoreboard/internal/scoreboard"
)

// Command names used for metrics and logs.
const (
	CmdCreateMatch     = "create_match"
	CmdImportMatch     = "import_match"
	CmdAdjustScore     = "adjust_score"
	CmdResetSet        = "reset_set"
	CmdCompleteSet     = "complete_set"
	CmdUpdateMatch     = "update_match"
	CmdUpdateGameState = "update_game_state"
	CmdUpdateTeam      = "update_team"
	CmdUpdateSettings  = "update_settings"
	CmdUploadTeamLogo  = "upload_team_logo"
	CmdUploadSponsor   = "upload_sponsor_logo"
)

// Caller identifies who issued a mutation.
type Caller struct {
	// ClientKey keys the rate limiter: the operator subject or the client IP.
	ClientKey string
	// IdempotencyKey is the optional Idempotency-Key header value.
	IdempotencyKey string
}

// MatchService fronts the scoreboard engine for the HTTP layer. It applies the
// mutation guards, keeps the display cache fresh and records command metrics.
type MatchService struct {
	engine  *scoreboard.Engine
	cache   *projection.DisplayCache
	logos   *media.LogoStore
	limiter *guard.RateLimiter
	idem    *guard.IdempotencyGuard
	metrics *metrics.Recorder
	logger  *slog.Logger
}

// NewMatchService creates a new MatchService. cache, limiter, idem and metrics may be nil.
func NewMatchService(
	engine *scoreboard.Engine,
	cache *projection.DisplayCache,
	logos *media.LogoStore,
	limiter *guard.RateLimiter,
	idem *guard.IdempotencyGuard,
	rec *metrics.Recorder,
	logger *slog.Logger,
) *MatchService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MatchService{
		engine:  engine,
		cache:   cache,
		logos:   logos,
		limiter: limiter,
		idem:    idem,
		metrics: rec,
		logger:  logger,
	}
}

// --- Reads ---

// Current returns the most recently created match.
func (s *MatchService) Current(ctx context.Context) (*domain.MatchBundle, error) {
	return s.engine.Current(ctx)
}

// Get returns a match by id.
func (s *MatchService) Get(ctx context.Context, matchID uuid.UUID) (*domain.MatchBundle, error) {
	return s.engine.Get(ctx, matchID)
}

// Export returns the full bundle for backup or transfer.
func (s *MatchService) Export(ctx context.Context, matchID uuid.UUID) (*domain.MatchBundle, error) {
	return s.engine.Export(ctx, matchID)
}

// Settings returns the display settings.
func (s *MatchService) Settings(ctx context.Context) (*domain.Settings, error) {
	return s.engine.Settings(ctx)
}

// Audit runs the consistency audit for a match.
func (s *MatchService) Audit(ctx context.Context, matchID uuid.UUID) (*scoreboard.AuditResult, error) {
	return s.engine.AuditMatch(ctx, matchID)
}

// Display returns the overlay projection of a match, served from the cache when fresh.
func (s *MatchService) Display(ctx context.Context, matchID uuid.UUID) (*projection.Scoreboard, error) {
	if sb, ok := s.cache.Get(ctx, matchID); ok {
		return sb, nil
	}
	b, err := s.engine.Get(ctx, matchID)
	if err != nil {
		return nil, err
	}
	return s.project(ctx, b)
}

// CurrentDisplay returns the projection of the current match.
func (s *MatchService) CurrentDisplay(ctx context.Context) (*projection.Scoreboard, error) {
	b, err := s.engine.Current(ctx)
	if err != nil {
		return nil, err
	}
	if sb, ok := s.cache.Get(ctx, b.Match.ID); ok {
		return sb, nil
	}
	return s.project(ctx, b)
}

func (s *MatchService) project(ctx context.Context, b *domain.MatchBundle) (*projection.Scoreboard, error) {
	settings, err := s.engine.Settings(ctx)
	if err != nil {
		return nil, err
	}
	sb := projection.Project(b, settings)
	if err := s.cache.Put(ctx, sb); err != nil {
		s.logger.WarnContext(ctx, "display cache put failed", "match_id", b.Match.ID, "error", err)
	}
	return sb, nil
}

// --- Match commands ---

// CreateMatch starts a new match, which becomes the current one.
func (s *MatchService) CreateMatch(ctx context.Context, caller Caller, params domain.CreateMatchParams) (*domain.CommandResult, error) {
	return s.runMatch(ctx, CmdCreateMatch, caller, uuid.Nil, func(ctx context.Context) (*domain.CommandResult, error) {
		return s.engine.CreateMatch(ctx, params)
	})
}

// Import restores an exported bundle as a new match.
func (s *MatchService) Import(ctx context.Context, caller Caller, in domain.MatchBundle) (*domain.CommandResult, error) {
	return s.runMatch(ctx, CmdImportMatch, caller, uuid.Nil, func(ctx context.Context) (*domain.CommandResult, error) {
		return s.engine.Import(ctx, in)
	})
}

// AdjustScore adds or removes a point for one side.
func (s *MatchService) AdjustScore(ctx context.Context, caller Caller, params domain.AdjustScoreParams) (*domain.CommandResult, error) {
	return s.runMatch(ctx, CmdAdjustScore, caller, params.MatchID, func(ctx context.Context) (*domain.CommandResult, error) {
		return s.engine.AdjustScore(ctx, params)
	})
}

// ResetCurrentSet zeroes the live scores.
func (s *MatchService) ResetCurrentSet(ctx context.Context, caller Caller, matchID uuid.UUID) (*domain.CommandResult, error) {
	return s.runMatch(ctx, CmdResetSet, caller, matchID, func(ctx context.Context) (*domain.CommandResult, error) {
		return s.engine.ResetCurrentSet(ctx, matchID)
	})
}

// CompleteSet finalizes the current set.
func (s *MatchService) CompleteSet(ctx context.Context, caller Caller, params domain.CompleteSetParams) (*domain.CommandResult, error) {
	return s.runMatch(ctx, CmdCompleteSet, caller, params.MatchID, func(ctx context.Context) (*domain.CommandResult, error) {
		return s.engine.CompleteSet(ctx, params)
	})
}

// UpdateMatch changes the format or overrides sets-won. An override that leaves
// the match inconsistent with its history is accepted but logged with the
// failing audit checks.
func (s *MatchService) UpdateMatch(ctx context.Context, caller Caller, params domain.UpdateMatchParams) (*domain.CommandResult, error) {
	res, err := s.runMatch(ctx, CmdUpdateMatch, caller, params.MatchID, func(ctx context.Context) (*domain.CommandResult, error) {
		return s.engine.UpdateMatch(ctx, params)
	})
	if err != nil {
		return nil, err
	}
	if res.Applied {
		if audit := scoreboard.Audit(res.Bundle); !audit.AllPassed {
			s.logger.WarnContext(ctx, "match diverges from set history",
				"match_id", params.MatchID,
				"failed_checks", audit.Failed(),
			)
		}
	}
	return res, nil
}

// UpdateGameState sets live scores or display options.
func (s *MatchService) UpdateGameState(ctx context.Context, caller Caller, params domain.UpdateGameStateParams) (*domain.CommandResult, error) {
	return s.runMatch(ctx, CmdUpdateGameState, caller, params.MatchID, func(ctx context.Context) (*domain.CommandResult, error) {
		return s.engine.UpdateGameState(ctx, params)
	})
}

// --- Team and settings commands ---

// UpdateTeam replaces team fields.
func (s *MatchService) UpdateTeam(ctx context.Context, caller Caller, params domain.UpdateTeamParams) (*domain.Team, error) {
	var team *domain.Team
	err := s.run(ctx, CmdUpdateTeam, caller, func(ctx context.Context) error {
		var err error
		team, err = s.engine.UpdateTeam(ctx, params)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.invalidateAll(ctx)
	return team, nil
}

// UpdateSettings replaces display settings fields.
func (s *MatchService) UpdateSettings(ctx context.Context, caller Caller, params domain.UpdateSettingsParams) (*domain.Settings, error) {
	var settings *domain.Settings
	err := s.run(ctx, CmdUpdateSettings, caller, func(ctx context.Context) error {
		var err error
		settings, err = s.engine.UpdateSettings(ctx, params)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.invalidateAll(ctx)
	return settings, nil
}

// UploadTeamLogo stores an image and points the team's logo at it.
func (s *MatchService) UploadTeamLogo(ctx context.Context, caller Caller, teamID uuid.UUID, r io.Reader) (*domain.Team, error) {
	var team *domain.Team
	err := s.run(ctx, CmdUploadTeamLogo, caller, func(ctx context.Context) error {
		stored, err := s.logos.Save(r)
		if err != nil {
			return err
		}
		team, err = s.engine.UpdateTeam(ctx, domain.UpdateTeamParams{TeamID: teamID, LogoPath: &stored.Path})
		if err != nil {
			s.discardUpload(ctx, stored.Name)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	s.invalidateAll(ctx)
	return team, nil
}

// UploadSponsorLogo stores an image and sets it as the sponsor logo.
func (s *MatchService) UploadSponsorLogo(ctx context.Context, caller Caller, r io.Reader) (*domain.Settings, error) {
	var settings *domain.Settings
	err := s.run(ctx, CmdUploadSponsor, caller, func(ctx context.Context) error {
		stored, err := s.logos.Save(r)
		if err != nil {
			return err
		}
		settings, err = s.engine.UpdateSettings(ctx, domain.UpdateSettingsParams{SponsorLogoPath: &stored.Path})
		if err != nil {
			s.discardUpload(ctx, stored.Name)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	s.invalidateAll(ctx)
	return settings, nil
}

// discardUpload removes an image whose owning update did not commit.
func (s *MatchService) discardUpload(ctx context.Context, name string) {
	if err := s.logos.Remove(name); err != nil {
		s.logger.WarnContext(ctx, "orphaned upload not removed", "name", name, "error", err)
	}
}

// Logos exposes the image store for serving uploads.
func (s *MatchService) Logos() *media.LogoStore {
	return s.logos
}

// --- Plumbing ---

func (s *MatchService) runMatch(
	ctx context.Context,
	command string,
	caller Caller,
	matchID uuid.UUID,
	fn func(context.Context) (*domain.CommandResult, error),
) (*domain.CommandResult, error) {
	var res *domain.CommandResult
	err := s.run(ctx, command, caller, func(ctx context.Context) error {
		var err error
		res, err = fn(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	if matchID == uuid.Nil && res.Bundle != nil {
		matchID = res.Bundle.Match.ID
	}
	if res.Applied {
		if err := s.cache.Invalidate(ctx, matchID); err != nil {
			s.logger.WarnContext(ctx, "display cache invalidate failed", "match_id", matchID, "error", err)
		}
		s.logger.InfoContext(ctx, "match command applied",
			"command", command,
			"match_id", matchID,
			"events", len(res.Events),
		)
	}
	return res, nil
}

// run applies the guards, executes fn and records the outcome.
func (s *MatchService) run(ctx context.Context, command string, caller Caller, fn func(context.Context) error) error {
	start := time.Now()
	err := s.guardAndRun(ctx, command, caller, fn)
	s.metrics.RecordCommand(command, time.Since(start), err)

	if err != nil {
		if appErr, ok := domain.AsAppError(err); ok && appErr.Code != domain.CodeInternal {
			s.logger.InfoContext(ctx, "command rejected", "command", command, "code", appErr.Code, "reason", appErr.Message)
		} else {
			s.logger.ErrorContext(ctx, "command failed", "command", command, "error", err)
		}
	}
	return err
}

func (s *MatchService) guardAndRun(ctx context.Context, command string, caller Caller, fn func(context.Context) error) error {
	if res := s.limiter.Check(ctx, caller.ClientKey); !res.Allowed {
		return domain.ErrRateLimited(res.Reason)
	}

	// Keys are scoped to the client and the command they were sent with.
	var idemKey string
	if s.idem != nil && caller.IdempotencyKey != "" {
		idemKey = caller.ClientKey + ":" + command + ":" + caller.IdempotencyKey
		if res := s.idem.Check(ctx, idemKey); !res.Allowed {
			return domain.ErrConflict(res.Reason)
		}
	}

	if err := fn(ctx); err != nil {
		if idemKey != "" {
			s.idem.Remove(idemKey)
		}
		if _, ok := domain.AsAppError(err); !ok {
			return domain.ErrInternal("command failed", err)
		}
		return err
	}
	return nil
}

func (s *MatchService) invalidateAll(ctx context.Context) {
	if err := s.cache.InvalidateAll(ctx); err != nil {
		s.logger.WarnContext(ctx, "display cache invalidate failed", "error", err)
	}
}
