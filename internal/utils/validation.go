package utils

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rdesitter/gym-tracker/internal/domain"
)

// ValidateClock backs the "clock" validation tag.
func ValidateClock(fl validator.FieldLevel) bool {
	return IsClock(fl.Field().String())
}

// ValidateAvailabilitySlots checks that every slot ends after it starts. Field formats are
// expected to be validated already.
func ValidateAvailabilitySlots(cfg *domain.UserConfig) error {
	for _, day := range cfg.Availability {
		for i, slot := range day.Slots {
			start, err := ToMinutes(slot.Start)
			if err != nil {
				return err
			}
			end, err := ToMinutes(slot.End)
			if err != nil {
				return err
			}
			if end <= start {
				return fmt.Errorf("le créneau %d du jour %d doit se terminer après son début", i+1, day.Day)
			}
		}
	}
	return nil
}
