package utils

import (
	"testing"

	"github.com/rdesitter/gym-tracker/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestValidateAvailabilitySlots(t *testing.T) {
	ok := &domain.UserConfig{
		Email: "a@example.com",
		Availability: []domain.DayAvailability{
			{Day: 1, Slots: []domain.TimeSlot{{Start: "09:00", End: "12:00"}, {Start: "10:00", End: "11:00"}}},
		},
	}
	assert.NoError(t, ValidateAvailabilitySlots(ok))

	inverted := &domain.UserConfig{
		Email:        "a@example.com",
		Availability: []domain.DayAvailability{{Day: 2, Slots: []domain.TimeSlot{{Start: "12:00", End: "09:00"}}}},
	}
	assert.Error(t, ValidateAvailabilitySlots(inverted))

	empty := &domain.UserConfig{
		Email:        "a@example.com",
		Availability: []domain.DayAvailability{{Day: 2, Slots: []domain.TimeSlot{{Start: "12:00", End: "12:00"}}}},
	}
	assert.Error(t, ValidateAvailabilitySlots(empty))
}

func TestGenerateRandomUserConfigIsValid(t *testing.T) {
	for i := 0; i < 50; i++ {
		cfg := GenerateRandomUserConfig("example.com")
		assert.NotEmpty(t, cfg.Email)
		assert.NotEmpty(t, cfg.Availability)
		assert.NoError(t, ValidateAvailabilitySlots(cfg))

		seen := map[int]bool{}
		for _, day := range cfg.Availability {
			assert.False(t, seen[day.Day], "duplicate day %d", day.Day)
			seen[day.Day] = true
		}
	}
}
