package matching

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/FGuerriero/get-volunteers-backend/internal/app"
	"github.com/FGuerriero/get-volunteers-backend/internal/db"
	svcErr "github.com/FGuerriero/get-volunteers-backend/internal/errors"
	"github.com/FGuerriero/get-volunteers-backend/internal/repository"
)

// Generator is the LLM call the engine depends on. Implementations
// return the raw JSON array of suggestions or an error; the engine
// treats any error as "no suggestions" and keeps going.
type Generator interface {
	GenerateMatches(ctx context.Context, prompt, idField string) (json.RawMessage, error)
}

// Notifier emits the two-sided notification for one accepted match.
// Implementations must swallow their own delivery failures.
type Notifier interface {
	NotifyMatch(ctx context.Context, volunteer *db.Volunteer, need *db.Need, details string)
}

// Service is the candidate matching engine. For a pivot entity (a need
// or a volunteer) it replaces the pivot's stored matches with whatever
// the LLM accepts out of the full counterpart listing. The LLM owns the
// matching heuristic; the engine owns validation, hallucination
// guarding, and the replace semantics.
type Service struct {
	appCtx     *app.AppContext
	volunteers *repository.VolunteerRepository
	needs      *repository.NeedRepository
	matches    *repository.MatchRepository
	generator  Generator
	notifier   Notifier
}

// NewService creates the engine with dependencies from AppContext plus
// the injected LLM generator. notifier may be nil to disable emails.
func NewService(appCtx *app.AppContext, generator Generator, notifier Notifier) *Service {
	return &Service{
		appCtx:     appCtx,
		volunteers: repository.NewVolunteerRepository(appCtx.DB),
		needs:      repository.NewNeedRepository(appCtx.DB),
		matches:    repository.NewMatchRepository(appCtx.DB),
		generator:  generator,
		notifier:   notifier,
	}
}

// suggestion is one validated item out of the model response.
type suggestion struct {
	id      uint64
	details string
}

// MatchNeedToVolunteers re-derives the match set for one need against
// the complete volunteer listing.
//
// The need's existing matches are cleared before the LLM is called, so
// a failed call leaves the need with zero matches rather than stale
// ones. Persistence errors are returned; provider and validation
// problems are logged and skipped.
func (s *Service) MatchNeedToVolunteers(ctx context.Context, need *db.Need, volunteers []db.Volunteer) error {
	log := s.appCtx.Logger.With("need_id", need.ID)

	if err := s.matches.DeleteByNeed(ctx, need.ID); err != nil {
		return err
	}

	if len(volunteers) == 0 {
		log.Info("no volunteers available to match")
		s.refreshNeedCount(ctx, need.ID, 0)
		return nil
	}

	prompt, err := renderNeedPrompt(need, volunteers)
	if err != nil {
		return err
	}

	raw, err := s.generator.GenerateMatches(ctx, prompt, "volunteer_id")
	if err != nil {
		log.Warn("llm call failed, treating as no matches", "err", err)
		raw = nil
	}

	suggestions := s.decodeSuggestions(log, raw, "volunteer_id")

	accepted := 0
	touched := make([]uint64, 0, len(suggestions))
	for _, sug := range suggestions {
		volunteer, err := s.volunteers.Get(ctx, sug.id)
		if err != nil {
			if svcErr.IsNotFound(err) {
				log.Warn("llm suggested non-existent volunteer", "volunteer_id", sug.id)
				continue
			}
			return err
		}

		if _, err := s.matches.Create(ctx, volunteer.ID, need.ID, sug.details); err != nil {
			return err
		}
		accepted++
		touched = append(touched, volunteer.ID)

		if s.notifier != nil {
			s.notifier.NotifyMatch(ctx, volunteer, need, sug.details)
		}
	}

	if accepted == 0 {
		log.Info("no valid matches found")
	} else {
		log.Info("matching run complete", "accepted", accepted)
	}

	s.refreshNeedCount(ctx, need.ID, int64(accepted))
	s.invalidateVolunteerCounts(ctx, touched)
	return nil
}

// MatchVolunteerToNeeds re-derives the match set for one volunteer
// against the complete need listing. Mirrors MatchNeedToVolunteers
// with the symbols swapped.
func (s *Service) MatchVolunteerToNeeds(ctx context.Context, volunteer *db.Volunteer, needs []db.Need) error {
	log := s.appCtx.Logger.With("volunteer_id", volunteer.ID)

	if err := s.matches.DeleteByVolunteer(ctx, volunteer.ID); err != nil {
		return err
	}

	if len(needs) == 0 {
		log.Info("no needs available to match")
		s.refreshVolunteerCount(ctx, volunteer.ID, 0)
		return nil
	}

	prompt, err := renderVolunteerPrompt(volunteer, needs)
	if err != nil {
		return err
	}

	raw, err := s.generator.GenerateMatches(ctx, prompt, "need_id")
	if err != nil {
		log.Warn("llm call failed, treating as no matches", "err", err)
		raw = nil
	}

	suggestions := s.decodeSuggestions(log, raw, "need_id")

	accepted := 0
	touched := make([]uint64, 0, len(suggestions))
	for _, sug := range suggestions {
		need, err := s.needs.Get(ctx, sug.id)
		if err != nil {
			if svcErr.IsNotFound(err) {
				log.Warn("llm suggested non-existent need", "need_id", sug.id)
				continue
			}
			return err
		}

		if _, err := s.matches.Create(ctx, volunteer.ID, need.ID, sug.details); err != nil {
			return err
		}
		accepted++
		touched = append(touched, need.ID)

		if s.notifier != nil {
			s.notifier.NotifyMatch(ctx, volunteer, need, sug.details)
		}
	}

	if accepted == 0 {
		log.Info("no valid matches found")
	} else {
		log.Info("matching run complete", "accepted", accepted)
	}

	s.refreshVolunteerCount(ctx, volunteer.ID, int64(accepted))
	s.invalidateNeedCounts(ctx, touched)
	return nil
}

// decodeSuggestions parses the raw model payload. The payload as a
// whole and each item are validated independently: a malformed item is
// logged and skipped without aborting the batch, an unparseable
// payload yields an empty batch.
func (s *Service) decodeSuggestions(log *slog.Logger, raw json.RawMessage, idField string) []suggestion {
	if len(raw) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var items []map[string]any
	if err := dec.Decode(&items); err != nil {
		log.Warn("llm returned unparseable payload", "err", err)
		return nil
	}

	out := make([]suggestion, 0, len(items))
	for _, item := range items {
		num, ok := item[idField].(json.Number)
		if !ok {
			log.Warn("llm returned invalid match data", "item", item)
			continue
		}
		id, err := num.Int64()
		if err != nil || id <= 0 {
			log.Warn("llm returned invalid match data", "item", item)
			continue
		}

		details, ok := item["match_details"].(string)
		if !ok || strings.TrimSpace(details) == "" {
			log.Warn("llm returned invalid match data", "item", item)
			continue
		}

		out = append(out, suggestion{id: uint64(id), details: details})
	}
	return out
}

// MatchesForVolunteer lists the stored matches referencing a volunteer.
func (s *Service) MatchesForVolunteer(ctx context.Context, volunteerID uint64) ([]db.Match, error) {
	return s.matches.ListByVolunteer(ctx, volunteerID)
}

// MatchesForNeed lists the stored matches referencing a need.
func (s *Service) MatchesForNeed(ctx context.Context, needID uint64) ([]db.Match, error) {
	return s.matches.ListByNeed(ctx, needID)
}

// CountMatchesForVolunteer returns the volunteer's match count.
// Cache-first strategy:
//  1. Attempts to read from Redis (matches:count:volunteer:<id>).
//  2. On cache miss, falls back to the store.
//  3. On store fetch, refreshes Redis with a 1h TTL.
func (s *Service) CountMatchesForVolunteer(ctx context.Context, volunteerID uint64) (int64, error) {
	key := s.appCtx.RedisCache.KeyForVolunteerMatchCount(volunteerID)
	if n, found, err := s.appCtx.RedisCache.GetMatchCount(ctx, key); err == nil && found {
		return n, nil
	}

	count, err := s.matches.CountByVolunteer(ctx, volunteerID)
	if err != nil {
		return 0, err
	}
	_ = s.appCtx.RedisCache.UpdateMatchCount(ctx, key, count)
	return count, nil
}

// CountMatchesForNeed returns the need's match count, cache-first.
func (s *Service) CountMatchesForNeed(ctx context.Context, needID uint64) (int64, error) {
	key := s.appCtx.RedisCache.KeyForNeedMatchCount(needID)
	if n, found, err := s.appCtx.RedisCache.GetMatchCount(ctx, key); err == nil && found {
		return n, nil
	}

	count, err := s.matches.CountByNeed(ctx, needID)
	if err != nil {
		return 0, err
	}
	_ = s.appCtx.RedisCache.UpdateMatchCount(ctx, key, count)
	return count, nil
}

// Cache writes are advisory: a failed write just means the next count
// query falls back to the store.

func (s *Service) refreshNeedCount(ctx context.Context, needID uint64, count int64) {
	key := s.appCtx.RedisCache.KeyForNeedMatchCount(needID)
	if err := s.appCtx.RedisCache.UpdateMatchCount(ctx, key, count); err != nil {
		s.appCtx.Logger.Debug("failed to refresh cached match count", "key", key, "err", err)
	}
}

func (s *Service) refreshVolunteerCount(ctx context.Context, volunteerID uint64, count int64) {
	key := s.appCtx.RedisCache.KeyForVolunteerMatchCount(volunteerID)
	if err := s.appCtx.RedisCache.UpdateMatchCount(ctx, key, count); err != nil {
		s.appCtx.Logger.Debug("failed to refresh cached match count", "key", key, "err", err)
	}
}

func (s *Service) invalidateVolunteerCounts(ctx context.Context, volunteerIDs []uint64) {
	keys := make([]string, 0, len(volunteerIDs))
	for _, id := range volunteerIDs {
		keys = append(keys, s.appCtx.RedisCache.KeyForVolunteerMatchCount(id))
	}
	if err := s.appCtx.RedisCache.InvalidateMatchCounts(ctx, keys...); err != nil {
		s.appCtx.Logger.Debug("failed to invalidate cached match counts", "err", err)
	}
}

func (s *Service) invalidateNeedCounts(ctx context.Context, needIDs []uint64) {
	keys := make([]string, 0, len(needIDs))
	for _, id := range needIDs {
		keys = append(keys, s.appCtx.RedisCache.KeyForNeedMatchCount(id))
	}
	if err := s.appCtx.RedisCache.InvalidateMatchCounts(ctx, keys...); err != nil {
		s.appCtx.Logger.Debug("failed to invalidate cached match counts", "err", err)
	}
}
