package application_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/example/orientation-hub/internal/application"
	"github.com/example/orientation-hub/internal/persistence"
	"github.com/example/orientation-hub/internal/testfixtures"
)

func TestTaskService_Select(t *testing.T) {
	t.Parallel()

	t.Run("records the selection and appends one marker", func(t *testing.T) {
		t.Parallel()
		factory := testfixtures.NewServiceFactory()
		testfixtures.SeedUser(t, factory.Store, testfixtures.NewUserFixture(
			testfixtures.WithUsername("alice"), testfixtures.WithDisplayName("Alice")))
		testfixtures.SeedLeaderboardEntry(t, factory.Store, testfixtures.LeaderboardEntry{Username: "alice"})
		directory := factory.Directory(t)

		if err := factory.Tasks(directory).Select(context.Background(), application.CategoryDorm, "alice", "Pei"); err != nil {
			t.Fatalf("Select returned error: %v", err)
		}

		markers := testfixtures.MustFind(t, factory.Store, persistence.TaskCollection("Dorm"), nil)
		if len(markers) != 1 {
			t.Fatalf("expected one marker, got %d", len(markers))
		}
		want := persistence.Fields{"Username": "alice", "DisplayName": "Alice"}
		if len(markers[0].Fields) != len(want) || !markers[0].Fields.Matches(want) {
			t.Fatalf("unexpected marker %v", markers[0].Fields)
		}

		user, _ := directory.Lookup("alice")
		if user.Selection(application.CategoryDorm) != "Pei" {
			t.Fatalf("expected dorm selection to be recorded, got %q", user.Selection(application.CategoryDorm))
		}

		entry := testfixtures.MustFind(t, factory.Store, persistence.LeaderboardCollection, nil)[0]
		if entry.Get("Dorm") != "False" || entry.Get("Points") != "0" {
			t.Fatalf("expected leaderboard to be untouched until aggregation, got %v", entry.Fields)
		}

		if reloaded, _ := factory.Directory(t).Lookup("alice"); reloaded.Selection(application.CategoryDorm) != "Pei" {
			t.Fatalf("expected selection to be persisted")
		}
	})

	t.Run("repeated selections append duplicate markers", func(t *testing.T) {
		t.Parallel()
		factory := testfixtures.NewServiceFactory()
		testfixtures.SeedUser(t, factory.Store, testfixtures.NewUserFixture(testfixtures.WithUsername("bob")))
		directory := factory.Directory(t)
		tasks := factory.Tasks(directory)

		for _, value := range []string{"Biology", "Chemistry"} {
			if err := tasks.Select(context.Background(), application.CategoryClass, "bob", value); err != nil {
				t.Fatalf("Select returned error: %v", err)
			}
		}
		if markers := testfixtures.MustFind(t, factory.Store, persistence.TaskCollection("Class"), nil); len(markers) != 2 {
			t.Fatalf("expected two markers, got %d", len(markers))
		}
		if user, _ := directory.Lookup("bob"); user.Selection(application.CategoryClass) != "Chemistry" {
			t.Fatalf("expected latest selection to win, got %q", user.Selection(application.CategoryClass))
		}
	})

	t.Run("unknown users are reported as not found", func(t *testing.T) {
		t.Parallel()
		factory := testfixtures.NewServiceFactory()
		directory := factory.Directory(t)

		err := factory.Tasks(directory).Select(context.Background(), application.CategoryFood, "ghost", "Pizza")
		if !errors.Is(err, application.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if markers := testfixtures.MustFind(t, factory.Store, persistence.TaskCollection("Food"), nil); len(markers) != 0 {
			t.Fatalf("expected no markers for unknown user")
		}
	})
}

func TestLeaderboardAggregator_Aggregate(t *testing.T) {
	t.Parallel()

	t.Run("awards points once per category", func(t *testing.T) {
		t.Parallel()
		factory := testfixtures.NewServiceFactory()
		testfixtures.SeedUser(t, factory.Store, testfixtures.NewUserFixture(testfixtures.WithUsername("alice")))
		testfixtures.SeedLeaderboardEntry(t, factory.Store, testfixtures.LeaderboardEntry{Username: "alice"})
		directory := factory.Directory(t)
		ctx := context.Background()

		if err := factory.Tasks(directory).Select(ctx, application.CategoryDorm, "alice", "Pei"); err != nil {
			t.Fatalf("Select returned error: %v", err)
		}

		board := factory.Leaderboard()
		for i := 0; i < 2; i++ {
			if err := board.Aggregate(ctx); err != nil {
				t.Fatalf("Aggregate returned error: %v", err)
			}
			entry := testfixtures.MustFind(t, factory.Store, persistence.LeaderboardCollection, nil)[0]
			if entry.Get("Dorm") != "True" || entry.Get("Points") != "100" {
				t.Fatalf("pass %d: unexpected entry %v", i+1, entry.Fields)
			}
			if entry.Get("Food") != "False" {
				t.Fatalf("expected other categories to stay incomplete")
			}
		}
	})

	t.Run("sums points across categories", func(t *testing.T) {
		t.Parallel()
		factory := testfixtures.NewServiceFactory()
		testfixtures.SeedUser(t, factory.Store, testfixtures.NewUserFixture(testfixtures.WithUsername("alice")))
		testfixtures.SeedLeaderboardEntry(t, factory.Store, testfixtures.LeaderboardEntry{Username: "alice", Points: 50})
		directory := factory.Directory(t)
		tasks := factory.Tasks(directory)
		ctx := context.Background()

		for _, category := range application.Categories {
			if err := tasks.Select(ctx, category, "alice", "choice"); err != nil {
				t.Fatalf("Select(%s) returned error: %v", category, err)
			}
		}
		if err := factory.Leaderboard().Aggregate(ctx); err != nil {
			t.Fatalf("Aggregate returned error: %v", err)
		}

		entry := testfixtures.MustFind(t, factory.Store, persistence.LeaderboardCollection, nil)[0]
		if entry.Get("Points") != "550" {
			t.Fatalf("expected 550 points, got %s", entry.Get("Points"))
		}
	})

	t.Run("markers without a leaderboard entry are ignored", func(t *testing.T) {
		t.Parallel()
		factory := testfixtures.NewServiceFactory()
		_, err := factory.Store.Insert(context.Background(), persistence.TaskCollection("Food"), persistence.Fields{"Username": "ghost"})
		if err != nil {
			t.Fatalf("seed marker: %v", err)
		}
		if err := factory.Leaderboard().Aggregate(context.Background()); err != nil {
			t.Fatalf("Aggregate returned error: %v", err)
		}
		if entries := testfixtures.MustFind(t, factory.Store, persistence.LeaderboardCollection, nil); len(entries) != 0 {
			t.Fatalf("expected no entries to be created, got %d", len(entries))
		}
	})

	t.Run("a malformed entry does not stop the run", func(t *testing.T) {
		t.Parallel()
		factory := testfixtures.NewServiceFactory()
		ctx := context.Background()
		testfixtures.SeedUser(t, factory.Store, testfixtures.NewUserFixture(testfixtures.WithUsername("alice")))
		testfixtures.SeedUser(t, factory.Store, testfixtures.NewUserFixture(testfixtures.WithUsername("bob")))
		if _, err := factory.Store.Insert(ctx, persistence.LeaderboardCollection, persistence.Fields{
			"Username": "alice", "Points": "", "Dorm": "False",
		}); err != nil {
			t.Fatalf("seed entry: %v", err)
		}
		testfixtures.SeedLeaderboardEntry(t, factory.Store, testfixtures.LeaderboardEntry{Username: "bob"})
		directory := factory.Directory(t)
		tasks := factory.Tasks(directory)
		for _, username := range []string{"alice", "bob"} {
			if err := tasks.Select(ctx, application.CategoryDorm, username, "Pei"); err != nil {
				t.Fatalf("Select(%s) returned error: %v", username, err)
			}
		}

		if err := factory.Leaderboard().Aggregate(ctx); err != nil {
			t.Fatalf("Aggregate returned error: %v", err)
		}
		entries := testfixtures.MustFind(t, factory.Store, persistence.LeaderboardCollection, persistence.Fields{"Username": "bob"})
		if len(entries) != 1 || entries[0].Get("Points") != "100" {
			t.Fatalf("expected bob to be awarded, got %v", entries)
		}
	})

	t.Run("concurrent aggregations award once", func(t *testing.T) {
		t.Parallel()
		factory := testfixtures.NewServiceFactory(testfixtures.WithStore(testfixtures.NewSQLiteStore(t)))
		testfixtures.SeedLeaderboardEntry(t, factory.Store, testfixtures.LeaderboardEntry{Username: "alice"})
		for i := 0; i < 3; i++ {
			_, err := factory.Store.Insert(context.Background(), persistence.TaskCollection("Faculty"), persistence.Fields{"Username": "alice"})
			if err != nil {
				t.Fatalf("seed marker: %v", err)
			}
		}

		board := factory.Leaderboard()
		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := board.Aggregate(context.Background()); err != nil {
					t.Errorf("Aggregate returned error: %v", err)
				}
			}()
		}
		wg.Wait()

		entry := testfixtures.MustFind(t, factory.Store, persistence.LeaderboardCollection, nil)[0]
		if entry.Get("Points") != "100" || entry.Get("Faculty") != "True" {
			t.Fatalf("unexpected entry after concurrent aggregation: %v", entry.Fields)
		}
	})
}

// staleStore reports every guarded update as lost.
type staleStore struct {
	persistence.Store
}

func (staleStore) Update(context.Context, persistence.Collection, string, persistence.Fields, persistence.Fields) (bool, error) {
	return false, nil
}

func TestLeaderboardAggregator_MarkCategoryComplete(t *testing.T) {
	t.Parallel()

	t.Run("flips the first incomplete entry only", func(t *testing.T) {
		t.Parallel()
		factory := testfixtures.NewServiceFactory()
		testfixtures.SeedLeaderboardEntry(t, factory.Store, testfixtures.LeaderboardEntry{Username: "alice", Points: 100, Completed: []string{"Class"}})
		testfixtures.SeedLeaderboardEntry(t, factory.Store, testfixtures.LeaderboardEntry{Username: "alice", Points: 0})
		board := factory.Leaderboard()
		ctx := context.Background()

		ok, err := board.MarkCategoryComplete(ctx, "alice", application.CategoryClass)
		if err != nil || !ok {
			t.Fatalf("expected the second entry to be marked: ok=%v err=%v", ok, err)
		}
		entries := testfixtures.MustFind(t, factory.Store, persistence.LeaderboardCollection, nil)
		if entries[0].Get("Points") != "100" || entries[1].Get("Points") != "100" || entries[1].Get("Class") != "True" {
			t.Fatalf("unexpected entries %v / %v", entries[0].Fields, entries[1].Fields)
		}

		ok, err = board.MarkCategoryComplete(ctx, "alice", application.CategoryClass)
		if err != nil || ok {
			t.Fatalf("expected no further change: ok=%v err=%v", ok, err)
		}
	})

	t.Run("skips entries with malformed points", func(t *testing.T) {
		t.Parallel()
		factory := testfixtures.NewServiceFactory()
		ctx := context.Background()
		_, err := factory.Store.Insert(ctx, persistence.LeaderboardCollection, persistence.Fields{
			"Username": "alice", "Points": "lots", "Dorm": "False",
		})
		if err != nil {
			t.Fatalf("seed entry: %v", err)
		}
		board := factory.Leaderboard()

		ok, err := board.MarkCategoryComplete(ctx, "alice", application.CategoryDorm)
		if err != nil || ok {
			t.Fatalf("expected the malformed entry to be skipped: ok=%v err=%v", ok, err)
		}

		testfixtures.SeedLeaderboardEntry(t, factory.Store, testfixtures.LeaderboardEntry{Username: "alice", Points: 0})
		ok, err = board.MarkCategoryComplete(ctx, "alice", application.CategoryDorm)
		if err != nil || !ok {
			t.Fatalf("expected the well-formed entry to be marked: ok=%v err=%v", ok, err)
		}
		entries := testfixtures.MustFind(t, factory.Store, persistence.LeaderboardCollection, nil)
		if entries[0].Get("Dorm") != "False" || entries[0].Get("Points") != "lots" {
			t.Fatalf("malformed entry should be left alone, got %v", entries[0].Fields)
		}
		if entries[1].Get("Dorm") != "True" || entries[1].Get("Points") != "100" {
			t.Fatalf("unexpected entry %v", entries[1].Fields)
		}
	})

	t.Run("gives up when the entry keeps changing", func(t *testing.T) {
		t.Parallel()
		factory := testfixtures.NewServiceFactory()
		testfixtures.SeedLeaderboardEntry(t, factory.Store, testfixtures.LeaderboardEntry{Username: "alice"})

		board := application.NewLeaderboardAggregator(staleStore{Store: factory.Store}, nil)
		_, err := board.MarkCategoryComplete(context.Background(), "alice", application.CategoryFood)
		if !errors.Is(err, application.ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
	})
}

func TestLeaderboardAggregator_Standings(t *testing.T) {
	t.Parallel()

	t.Run("sorts ascending by points", func(t *testing.T) {
		t.Parallel()
		factory := testfixtures.NewServiceFactory()
		for _, entry := range []testfixtures.LeaderboardEntry{
			{Username: "A", Points: 300},
			{Username: "B", Points: 100},
			{Username: "C", Points: 200},
			{Username: "D", Points: 100},
		} {
			testfixtures.SeedLeaderboardEntry(t, factory.Store, entry)
		}

		standings, err := factory.Leaderboard().Standings(context.Background())
		if err != nil {
			t.Fatalf("Standings returned error: %v", err)
		}
		want := []application.Standing{
			{Username: "B", Points: 100},
			{Username: "D", Points: 100},
			{Username: "C", Points: 200},
			{Username: "A", Points: 300},
		}
		if len(standings) != len(want) {
			t.Fatalf("unexpected standings %v", standings)
		}
		for i := range want {
			if standings[i] != want[i] {
				t.Fatalf("standings[%d] = %v, want %v", i, standings[i], want[i])
			}
		}
		if got := application.FormatStandings(standings); got != "B:100,D:100,C:200,A:300" {
			t.Fatalf("unexpected rendering %q", got)
		}
	})

	t.Run("leaves out entries with malformed points", func(t *testing.T) {
		t.Parallel()
		factory := testfixtures.NewServiceFactory()
		testfixtures.SeedLeaderboardEntry(t, factory.Store, testfixtures.LeaderboardEntry{Username: "A", Points: 200})
		if _, err := factory.Store.Insert(context.Background(), persistence.LeaderboardCollection, persistence.Fields{
			"Username": "B", "Points": "n/a",
		}); err != nil {
			t.Fatalf("seed entry: %v", err)
		}
		testfixtures.SeedLeaderboardEntry(t, factory.Store, testfixtures.LeaderboardEntry{Username: "C", Points: 100})

		standings, err := factory.Leaderboard().Standings(context.Background())
		if err != nil {
			t.Fatalf("Standings returned error: %v", err)
		}
		if got := application.FormatStandings(standings); got != "C:100,A:200" {
			t.Fatalf("unexpected rendering %q", got)
		}
	})

	t.Run("empty leaderboard renders empty", func(t *testing.T) {
		t.Parallel()
		standings, err := testfixtures.NewServiceFactory().Leaderboard().Standings(context.Background())
		if err != nil || len(standings) != 0 {
			t.Fatalf("expected no standings, got %v (%v)", standings, err)
		}
		if got := application.FormatStandings(standings); got != "" {
			t.Fatalf("expected empty rendering, got %q", got)
		}
	})

	t.Run("propagates store failures", func(t *testing.T) {
		t.Parallel()
		expected := errors.New("boom")
		_, err := application.NewLeaderboardAggregator(failingStore{err: expected}, nil).Standings(context.Background())
		if !errors.Is(err, expected) {
			t.Fatalf("expected %v, got %v", expected, err)
		}
	})
}
