package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/example/orientation-hub/internal/persistence"
)

const (
	// CompletionPoints is awarded once per user and category.
	CompletionPoints = 100

	flagTrue  = "True"
	flagFalse = "False"

	defaultMaxAttempts = 5
)

// LeaderboardAggregator turns completion markers into leaderboard points.
// Entries in Tasks.Leaderboard are seeded externally and never created here.
type LeaderboardAggregator struct {
	store       persistence.Store
	logger      *slog.Logger
	maxAttempts int
}

// NewLeaderboardAggregator constructs an aggregator.
func NewLeaderboardAggregator(store persistence.Store, logger *slog.Logger) *LeaderboardAggregator {
	return &LeaderboardAggregator{store: store, logger: defaultLogger(logger), maxAttempts: defaultMaxAttempts}
}

// Aggregate scans the marker collections in category order and marks each
// marker's user complete. Running it again awards nothing new.
func (a *LeaderboardAggregator) Aggregate(ctx context.Context) error {
	logger := serviceLogger(ctx, a.logger, "LeaderboardAggregator", "Aggregate")

	awarded := 0
	for _, category := range Categories {
		markers, err := a.store.Find(ctx, category.Collection(), nil)
		if err != nil {
			logger.ErrorContext(ctx, "failed to read completion markers", "category", string(category), "error", err, "error_kind", ErrorKind(err))
			return fmt.Errorf("aggregate %s: %w", category, err)
		}
		for _, marker := range markers {
			ok, err := a.MarkCategoryComplete(ctx, marker.Get(persistence.FieldUsername), category)
			if err != nil {
				return err
			}
			if ok {
				awarded++
			}
		}
	}

	logger.InfoContext(ctx, "leaderboard aggregated", "awarded", awarded)
	return nil
}

// MarkCategoryComplete flips the category flag of the user's first entry that
// still has it set to "False" and adds CompletionPoints. Entries whose points
// cannot be parsed are logged and skipped. It reports false when no usable
// entry exists.
//
// The flip is a compare-and-set on the flag and the previous points, so
// concurrent aggregations award each category at most once.
func (a *LeaderboardAggregator) MarkCategoryComplete(ctx context.Context, username string, category Category) (bool, error) {
	logger := serviceLogger(ctx, a.logger, "LeaderboardAggregator", "MarkCategoryComplete", "username", username, "category", string(category))
	flag := string(category)

	for attempt := 0; attempt < a.maxAttempts; attempt++ {
		entries, err := a.store.Find(ctx, persistence.LeaderboardCollection, persistence.Fields{
			persistence.FieldUsername: username,
			flag:                      flagFalse,
		})
		if err != nil {
			logger.ErrorContext(ctx, "failed to read leaderboard entry", "error", err, "error_kind", ErrorKind(err))
			return false, fmt.Errorf("mark %s complete for %q: %w", category, username, err)
		}

		entry, points, found := firstScorable(ctx, logger, entries)
		if !found {
			return false, nil
		}
		current := entry.Get(persistence.FieldPoints)

		applied, err := a.store.Update(ctx, persistence.LeaderboardCollection, entry.ID,
			persistence.Fields{flag: flagFalse, persistence.FieldPoints: current},
			persistence.Fields{flag: flagTrue, persistence.FieldPoints: strconv.Itoa(points + CompletionPoints)},
		)
		if err != nil {
			logger.ErrorContext(ctx, "failed to update leaderboard entry", "error", err, "error_kind", ErrorKind(err))
			return false, fmt.Errorf("mark %s complete for %q: %w", category, username, err)
		}
		if applied {
			logger.InfoContext(ctx, "category completed", "points", points+CompletionPoints)
			return true, nil
		}
		logger.DebugContext(ctx, "leaderboard entry changed concurrently, retrying", "attempt", attempt+1)
	}

	err := fmt.Errorf("mark %s complete for %q: %w", category, username, ErrConflict)
	logger.ErrorContext(ctx, "giving up on contended entry", "error", err, "error_kind", ErrorKind(err))
	return false, err
}

// Standings returns every leaderboard entry ordered by ascending points.
// Entries with equal points keep their store order. Entries whose points
// cannot be parsed are logged and left out.
func (a *LeaderboardAggregator) Standings(ctx context.Context) ([]Standing, error) {
	logger := serviceLogger(ctx, a.logger, "LeaderboardAggregator", "Standings")

	entries, err := a.store.Find(ctx, persistence.LeaderboardCollection, nil)
	if err != nil {
		logger.ErrorContext(ctx, "failed to read leaderboard", "error", err, "error_kind", ErrorKind(err))
		return nil, fmt.Errorf("standings: %w", err)
	}

	standings := make([]Standing, 0, len(entries))
	for _, entry := range entries {
		points, err := entryPoints(entry)
		if err != nil {
			logger.WarnContext(ctx, "skipping leaderboard entry", "error", err, "error_kind", ErrorKind(err))
			continue
		}
		standings = append(standings, Standing{Username: entry.Get(persistence.FieldUsername), Points: points})
	}

	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].Points < standings[j].Points
	})
	return standings, nil
}

// firstScorable returns the first entry with parseable points, logging the
// ones it skips.
func firstScorable(ctx context.Context, logger *slog.Logger, entries []persistence.Record) (persistence.Record, int, bool) {
	for _, entry := range entries {
		points, err := entryPoints(entry)
		if err != nil {
			logger.WarnContext(ctx, "skipping leaderboard entry", "error", err, "error_kind", ErrorKind(err))
			continue
		}
		return entry, points, true
	}
	return persistence.Record{}, 0, false
}

func entryPoints(entry persistence.Record) (int, error) {
	raw := entry.Get(persistence.FieldPoints)
	points, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("leaderboard entry %s points %q: %w", entry.ID, raw, ErrMalformedRecord)
	}
	return points, nil
}

// FormatStandings renders standings as "username:points" pairs joined by commas.
func FormatStandings(standings []Standing) string {
	parts := make([]string, 0, len(standings))
	for _, s := range standings {
		parts = append(parts, s.Username+":"+strconv.Itoa(s.Points))
	}
	return strings.Join(parts, ",")
}
