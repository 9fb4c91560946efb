package utils

import (
	"fmt"
	"math/rand"

	"github.com/rdesitter/gym-tracker/internal/domain"
)

var firstNames = []string{
	"alice", "benoit", "chloe", "david", "emma", "felix", "gabrielle", "hugo",
	"ines", "jules", "lea", "mathis", "noemie", "olivier", "rosalie", "samuel",
}

var letters = []rune("abcdefghijklmnopqrstuvwxyz0123456789")

func GenerateRandomID(length int) string {
	id := make([]rune, length)
	for i := range id {
		id[i] = letters[rand.Intn(len(letters))]
	}
	return string(id)
}

func GenerateRandomEmail(domainName string) string {
	return fmt.Sprintf("%s.%s@%s", firstNames[rand.Intn(len(firstNames))], GenerateRandomID(4), domainName)
}

// GenerateRandomSlot returns a slot between 06:00 and 22:00 that is one to four hours long.
func GenerateRandomSlot() domain.TimeSlot {
	startHour := rand.Intn(14) + 6 // 6~19
	length := rand.Intn(4) + 1     // 1~4
	endHour := min(startHour+length, 22)
	startMinute := []int{0, 15, 30}[rand.Intn(3)]

	return domain.TimeSlot{
		Start: fmt.Sprintf("%02d:%02d", startHour, startMinute),
		End:   fmt.Sprintf("%02d:%02d", endHour, 45),
	}
}

// Fisher-Yates shuffle to pick a random subset of weekdays
func GenerateRandomDays() []int {
	days := []int{0, 1, 2, 3, 4, 5, 6}

	for i := len(days) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		days[i], days[j] = days[j], days[i]
	}

	n := rand.Intn(len(days)) + 1

	return days[:n]
}

func GenerateRandomUserConfig(domainName string) *domain.UserConfig {
	cfg := &domain.UserConfig{
		Email:             GenerateRandomEmail(domainName),
		NotifyOnNewCourse: rand.Intn(4) != 0,
	}

	for _, day := range GenerateRandomDays() {
		slots := make([]domain.TimeSlot, rand.Intn(2)+1)
		for i := range slots {
			slots[i] = GenerateRandomSlot()
		}
		cfg.Availability = append(cfg.Availability, domain.DayAvailability{Day: day, Slots: slots})
	}

	return cfg
}
