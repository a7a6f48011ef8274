package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/orientation-hub/internal/persistence"
)

// Class document fields in ClassDB.Classes.
const (
	fieldClassTitle        = "Class Title"
	fieldProfessors        = "Professor(s)"
	fieldStartTime         = "Start Time"
	fieldEndTime           = "End Time"
	fieldStartDate         = "Start Date"
	fieldEndDate           = "End Date"
	fieldDays              = "Days"
	fieldWorkshopStartTime = "Workshop Start Time"
	fieldWorkshopEndTime   = "Workshop End Time"
	fieldWorkshopDay       = "Workshop Day"
)

// Workshop is an inert companion session attached to a class.
type Workshop struct {
	StartTime string
	EndTime   string
	StartDate string
	EndDate   string
	Day       time.Weekday
}

func (w Workshop) String() string {
	return fmt.Sprintf("Workshop - %s %s-%s", w.Day, w.StartTime, w.EndTime)
}

// Class describes a course offering.
type Class struct {
	Title      string
	Professors string
	StartTime  string
	EndTime    string
	StartDate  string
	EndDate    string
	Days       []time.Weekday
	Workshop   *Workshop
}

// DaysString joins the meeting days with single spaces.
func (c Class) DaysString() string {
	names := make([]string, 0, len(c.Days))
	for _, d := range c.Days {
		names = append(names, d.String())
	}
	return strings.Join(names, " ")
}

// AddWorkshop attaches a workshop that runs over the class dates.
func (c *Class) AddWorkshop(startTime, endTime string, day time.Weekday) *Workshop {
	c.Workshop = &Workshop{
		StartTime: startTime,
		EndTime:   endTime,
		StartDate: c.StartDate,
		EndDate:   c.EndDate,
		Day:       day,
	}
	return c.Workshop
}

func (c Class) String() string {
	return fmt.Sprintf("%s (%s) %s %s-%s, %s to %s", c.Title, c.Professors, c.DaysString(), c.StartTime, c.EndTime, c.StartDate, c.EndDate)
}

// ParseDays parses space or comma separated weekday names such as
// "Tuesday Thursday" or "tue,thu".
func ParseDays(value string) ([]time.Weekday, error) {
	fields := strings.FieldsFunc(value, func(r rune) bool { return r == ' ' || r == ',' })
	days := make([]time.Weekday, 0, len(fields))
	for _, f := range fields {
		day, ok := parseWeekday(f)
		if !ok {
			return nil, &ValidationError{FieldErrors: map[string]string{fieldDays: "unknown day " + f}}
		}
		days = append(days, day)
	}
	return days, nil
}

func parseWeekday(value string) (time.Weekday, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	if len(value) < 3 {
		return 0, false
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.HasPrefix(strings.ToLower(d.String()), value) {
			return d, true
		}
	}
	return 0, false
}

// ClassCatalog stores classes in ClassDB.Classes.
type ClassCatalog struct {
	store  persistence.Store
	logger *slog.Logger
}

// NewClassCatalog constructs a catalog.
func NewClassCatalog(store persistence.Store, logger *slog.Logger) *ClassCatalog {
	return &ClassCatalog{store: store, logger: defaultLogger(logger)}
}

// Save appends class to the catalog.
func (c *ClassCatalog) Save(ctx context.Context, class Class) error {
	logger := serviceLogger(ctx, c.logger, "ClassCatalog", "Save", "title", class.Title)

	vErr := &ValidationError{}
	vErr.requireNonBlank(fieldClassTitle, class.Title)
	if err := vErr.errOrNil(); err != nil {
		logger.InfoContext(ctx, "class rejected", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	fields := persistence.Fields{
		fieldClassTitle: class.Title,
		fieldProfessors: class.Professors,
		fieldStartTime:  class.StartTime,
		fieldEndTime:    class.EndTime,
		fieldStartDate:  class.StartDate,
		fieldEndDate:    class.EndDate,
		fieldDays:       class.DaysString(),
	}
	if w := class.Workshop; w != nil {
		fields[fieldWorkshopStartTime] = w.StartTime
		fields[fieldWorkshopEndTime] = w.EndTime
		fields[fieldWorkshopDay] = w.Day.String()
	}

	if _, err := c.store.Insert(ctx, persistence.ClassesCollection, fields); err != nil {
		logger.ErrorContext(ctx, "failed to store class", "error", err, "error_kind", ErrorKind(err))
		return fmt.Errorf("save class: %w", err)
	}
	logger.InfoContext(ctx, "class saved")
	return nil
}

// List returns every stored class in store order.
func (c *ClassCatalog) List(ctx context.Context) ([]Class, error) {
	records, err := c.store.Find(ctx, persistence.ClassesCollection, nil)
	if err != nil {
		serviceLogger(ctx, c.logger, "ClassCatalog", "List").
			ErrorContext(ctx, "failed to read classes", "error", err, "error_kind", ErrorKind(err))
		return nil, fmt.Errorf("list classes: %w", err)
	}

	classes := make([]Class, 0, len(records))
	for _, record := range records {
		days, err := ParseDays(record.Get(fieldDays))
		if err != nil {
			return nil, fmt.Errorf("class %s days: %w", record.ID, ErrMalformedRecord)
		}
		class := Class{
			Title:      record.Get(fieldClassTitle),
			Professors: record.Get(fieldProfessors),
			StartTime:  record.Get(fieldStartTime),
			EndTime:    record.Get(fieldEndTime),
			StartDate:  record.Get(fieldStartDate),
			EndDate:    record.Get(fieldEndDate),
			Days:       days,
		}
		if dayName := record.Get(fieldWorkshopDay); dayName != "" {
			day, ok := parseWeekday(dayName)
			if !ok {
				return nil, fmt.Errorf("class %s workshop day: %w", record.ID, ErrMalformedRecord)
			}
			class.AddWorkshop(record.Get(fieldWorkshopStartTime), record.Get(fieldWorkshopEndTime), day)
		}
		classes = append(classes, class)
	}
	return classes, nil
}
