package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"vehicle-info-bot/internal/domain/vehicle"
	"vehicle-info-bot/internal/metrics"
	"vehicle-info-bot/internal/registry"
	"vehicle-info-bot/internal/utils"
)

type Outcome string

const (
	OutcomeFound     Outcome = "found"
	OutcomeNotFound  Outcome = "not_found"
	OutcomeMalformed Outcome = "malformed"
)

// Searcher finds a vehicle record by normalized plate.
type Searcher interface {
	Search(ctx context.Context, plate string) (*registry.Result, error)
}

type LookupResult struct {
	Outcome    Outcome                `json:"outcome"`
	Plate      string                 `json:"plate"`
	Normalized string                 `json:"normalized"`
	Resource   string                 `json:"resource,omitempty"`
	Record     vehicle.Record         `json:"-"`
	Reply      vehicle.FormattedReply `json:"reply"`
}

type LookupService struct {
	registry Searcher
	log      zerolog.Logger
}

func NewLookupService(registry Searcher, log zerolog.Logger) *LookupService {
	return &LookupService{
		registry: registry,
		log:      log,
	}
}

// Lookup normalizes and validates the plate, searches the registry and
// formats the record. Misses of any kind are reported through the outcome;
// the error is reserved for cancellation and unexpected registry failures.
func (s *LookupService) Lookup(ctx context.Context, plate string) (*LookupResult, error) {
	plate = strings.TrimSpace(plate)
	normalized := utils.NormalizePlate(plate)

	result := &LookupResult{
		Outcome:    OutcomeNotFound,
		Plate:      plate,
		Normalized: normalized,
	}

	if !utils.IsValidPlate(normalized) {
		s.log.Debug().
			Str("plate", plate).
			Str("normalized", normalized).
			Msg("plate failed validation, skipping registry")
		metrics.RecordLookup("invalid")
		return result, nil
	}

	found, err := s.registry.Search(ctx, normalized)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			s.log.Info().
				Str("plate", plate).
				Str("normalized", normalized).
				Msg("vehicle not found")
			metrics.RecordLookup(string(OutcomeNotFound))
			return result, nil
		}
		s.log.Error().
			Err(err).
			Str("normalized", normalized).
			Msg("registry search failed")
		metrics.RecordLookup("error")
		return nil, fmt.Errorf("search registry: %w", err)
	}

	result.Resource = found.Resource
	result.Record = found.Record

	reply, err := Format(found.Record)
	if err != nil {
		s.log.Warn().
			Err(err).
			Str("normalized", normalized).
			Str("resource", found.Resource).
			Msg("failed to format vehicle record")
		result.Outcome = OutcomeMalformed
		metrics.RecordLookup(string(OutcomeMalformed))
		return result, nil
	}

	result.Outcome = OutcomeFound
	result.Reply = reply
	metrics.RecordLookup(string(OutcomeFound))

	s.log.Info().
		Str("normalized", normalized).
		Str("resource", found.Resource).
		Int("fields", len(reply.Lines)).
		Msg("vehicle lookup succeeded")

	return result, nil
}
