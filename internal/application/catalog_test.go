package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/orientation-hub/internal/application"
	"github.com/example/orientation-hub/internal/testfixtures"
)

func TestClass(t *testing.T) {
	t.Parallel()

	class := application.Class{
		Title:      "Calculus I",
		Professors: "Dr. Gauss",
		StartTime:  "09:00",
		EndTime:    "10:20",
		StartDate:  "2024-08-26",
		EndDate:    "2024-12-13",
		Days:       []time.Weekday{time.Tuesday, time.Thursday},
	}

	if got := class.DaysString(); got != "Tuesday Thursday" {
		t.Fatalf("unexpected days %q", got)
	}

	workshop := class.AddWorkshop("15:00", "16:00", time.Friday)
	if workshop.StartDate != class.StartDate || workshop.EndDate != class.EndDate {
		t.Fatalf("expected workshop to inherit class dates, got %#v", workshop)
	}
	if class.Workshop != workshop {
		t.Fatalf("expected workshop to be attached")
	}
	if got := workshop.String(); got != "Workshop - Friday 15:00-16:00" {
		t.Fatalf("unexpected workshop rendering %q", got)
	}
}

func TestParseDays(t *testing.T) {
	t.Parallel()

	days, err := application.ParseDays("mon, Wednesday fri")
	if err != nil {
		t.Fatalf("ParseDays returned error: %v", err)
	}
	want := []time.Weekday{time.Monday, time.Wednesday, time.Friday}
	if len(days) != len(want) {
		t.Fatalf("unexpected days %v", days)
	}
	for i := range want {
		if days[i] != want[i] {
			t.Fatalf("days[%d] = %v, want %v", i, days[i], want[i])
		}
	}

	if days, err := application.ParseDays(""); err != nil || len(days) != 0 {
		t.Fatalf("expected empty input to parse to nothing, got %v (%v)", days, err)
	}

	var vErr *application.ValidationError
	if _, err := application.ParseDays("someday"); !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestClassCatalog(t *testing.T) {
	t.Parallel()

	t.Run("saves and lists classes", func(t *testing.T) {
		t.Parallel()
		catalog := testfixtures.NewServiceFactory().Catalog()
		ctx := context.Background()

		withWorkshop := application.Class{Title: "Chemistry", Professors: "Dr. Curie", StartDate: "2024-08-26", EndDate: "2024-12-13", Days: []time.Weekday{time.Monday}}
		withWorkshop.AddWorkshop("13:00", "15:00", time.Wednesday)
		for _, class := range []application.Class{
			{Title: "Calculus I", Professors: "Dr. Gauss", Days: []time.Weekday{time.Tuesday, time.Thursday}},
			withWorkshop,
		} {
			if err := catalog.Save(ctx, class); err != nil {
				t.Fatalf("Save returned error: %v", err)
			}
		}

		classes, err := catalog.List(ctx)
		if err != nil {
			t.Fatalf("List returned error: %v", err)
		}
		if len(classes) != 2 {
			t.Fatalf("expected two classes, got %d", len(classes))
		}
		if classes[0].Title != "Calculus I" || classes[0].DaysString() != "Tuesday Thursday" || classes[0].Workshop != nil {
			t.Fatalf("unexpected first class %#v", classes[0])
		}
		w := classes[1].Workshop
		if w == nil || w.Day != time.Wednesday || w.StartTime != "13:00" || w.StartDate != "2024-08-26" {
			t.Fatalf("unexpected workshop %#v", w)
		}
	})

	t.Run("requires a title", func(t *testing.T) {
		t.Parallel()
		err := testfixtures.NewServiceFactory().Catalog().Save(context.Background(), application.Class{})
		var vErr *application.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
}
