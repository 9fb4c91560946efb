package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/rdesitter/gym-tracker/internal/domain"
	"github.com/rdesitter/gym-tracker/internal/utils"
)

var requiredHeaders = []string{"email", "day", "start", "end"}

type Upserter interface {
	UpsertUserConfig(ctx context.Context, cfg *domain.UserConfig) error
}

// ParseSubscribersCSV reads rows of email,day,start,end (one row per slot) and groups them into
// one config per email, in order of first appearance. Invalid rows are logged and skipped.
// An optional notify column ("true"/"false") defaults to true.
func ParseSubscribersCSV(r io.Reader) ([]*domain.UserConfig, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	col := make(map[string]int, len(headers))
	for i, h := range headers {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, h := range requiredHeaders {
		if _, ok := col[h]; !ok {
			return nil, fmt.Errorf("missing column %q", h)
		}
	}

	var configs []*domain.UserConfig
	byEmail := make(map[string]*domain.UserConfig)

	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		field := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		email := field("email")
		day, slot, err := parseSlot(field("day"), field("start"), field("end"))
		if email == "" || err != nil {
			slog.Warn("skipping invalid row", "line", line, "email", email, "error", err)
			continue
		}

		cfg, ok := byEmail[email]
		if !ok {
			notify := true
			if v := field("notify"); v != "" {
				notify, _ = strconv.ParseBool(v)
			}
			cfg = &domain.UserConfig{Email: email, NotifyOnNewCourse: notify, Availability: []domain.DayAvailability{}}
			byEmail[email] = cfg
			configs = append(configs, cfg)
		}
		addSlot(cfg, day, slot)
	}

	return configs, nil
}

func parseSlot(dayValue, start, end string) (int, domain.TimeSlot, error) {
	day, err := strconv.Atoi(dayValue)
	if err != nil || day < 0 || day > 6 {
		return 0, domain.TimeSlot{}, fmt.Errorf("day %q is not between 0 and 6", dayValue)
	}

	s, err := utils.ToMinutes(start)
	if err != nil {
		return 0, domain.TimeSlot{}, err
	}
	e, err := utils.ToMinutes(end)
	if err != nil {
		return 0, domain.TimeSlot{}, err
	}
	if e <= s {
		return 0, domain.TimeSlot{}, fmt.Errorf("slot %s-%s ends before it starts", start, end)
	}

	return day, domain.TimeSlot{Start: start, End: end}, nil
}

func addSlot(cfg *domain.UserConfig, day int, slot domain.TimeSlot) {
	for i := range cfg.Availability {
		if cfg.Availability[i].Day == day {
			cfg.Availability[i].Slots = append(cfg.Availability[i].Slots, slot)
			return
		}
	}
	cfg.Availability = append(cfg.Availability, domain.DayAvailability{Day: day, Slots: []domain.TimeSlot{slot}})
}

// ImportSubscribers upserts every subscriber found in the CSV and returns how many were stored.
func ImportSubscribers(ctx context.Context, r io.Reader, store Upserter) (int, error) {
	configs, err := ParseSubscribersCSV(r)
	if err != nil {
		return 0, err
	}

	stored := 0
	for _, cfg := range configs {
		if err := store.UpsertUserConfig(ctx, cfg); err != nil {
			if errors.Is(err, domain.ErrStoreUnavailable) {
				return stored, err
			}
			slog.Error("failed to store subscriber", "email", cfg.Email, "error", err)
			continue
		}
		stored++
	}

	slog.Info("subscribers imported", "count", stored)
	return stored, nil
}
