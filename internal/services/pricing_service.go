package services

import (
	"fmt"
	"time"

	"github.com/chennaitransit/pass-backend/internal/models"
)

// Base fare per stop of distance, in whole rupees.
const baseFarePerStop = 10

// MinimumFare is the floor applied to every computed price. Same-stop
// journeys and single tickets never price below this.
const MinimumFare = 10

// Flat All-in-One prices per pass tier.
var allInOnePrices = map[string]int64{
	models.PassTypeOneDay:  100,
	models.PassTypeWeekly:  400,
	models.PassTypeMonthly: 1000,
}

// Tier multipliers for distance-priced modes.
var tierMultipliers = map[string]int64{
	models.PassTypeOneDay:  1,
	models.PassTypeWeekly:  5,
	models.PassTypeMonthly: 20,
}

// Validity length per pass tier, applied from the start of the window.
var tierDurations = map[string]time.Duration{
	models.PassTypeOneDay:  24 * time.Hour,
	models.PassTypeWeekly:  7 * 24 * time.Hour,
	models.PassTypeMonthly: 30 * 24 * time.Hour,
}

// Ordered stop lists per mode. Distance is the absolute difference of stop
// indices, so the order here is the fare structure.
var stopLists = map[string][]string{
	models.ModeBus:   {"Guindy", "T Nagar", "Saidapet", "Velachery"},
	models.ModeTrain: {"Chennai Central", "Egmore", "Tambaram", "Mambalam"},
	models.ModeMetro: {"Airport", "Ashok Nagar", "Guindy", "Washermanpet"},
}

// PricingService deterministically computes pass prices. It is pure: no
// side effects, all state is the fixed fare tables above.
type PricingService struct{}

// NewPricingService creates a new pricing service
func NewPricingService() *PricingService {
	return &PricingService{}
}

// Stops returns the ordered stop list for a mode. All-in-One has no stops.
func (s *PricingService) Stops(mode string) []string {
	return stopLists[mode]
}

// stopIndex finds a stop in a mode's list, or -1
func stopIndex(mode, stop string) int {
	for i, name := range stopLists[mode] {
		if name == stop {
			return i
		}
	}
	return -1
}

// Price computes the amount to charge for a pass. Unknown stops are
// rejected rather than priced at a boundary distance; the final price is
// clamped to MinimumFare so a same-stop journey is never free.
func (s *PricingService) Price(mode, passType, startLocation, endLocation string) (int64, error) {
	if !models.ValidMode(mode) {
		return 0, fmt.Errorf("invalid mode: %s", mode)
	}
	if !models.ValidPassType(passType) {
		return 0, fmt.Errorf("invalid pass type: %s", passType)
	}

	if mode == models.ModeAllInOne {
		// Flat table, route fields ignored
		return allInOnePrices[passType], nil
	}

	startIdx := stopIndex(mode, startLocation)
	if startIdx < 0 {
		return 0, fmt.Errorf("unknown %s stop: %q", mode, startLocation)
	}
	endIdx := stopIndex(mode, endLocation)
	if endIdx < 0 {
		return 0, fmt.Errorf("unknown %s stop: %q", mode, endLocation)
	}

	distance := startIdx - endIdx
	if distance < 0 {
		distance = -distance
	}

	price := int64(baseFarePerStop*distance) * tierMultipliers[passType]
	if price < MinimumFare {
		price = MinimumFare
	}

	return price, nil
}

// ValidityWindow derives the validity end for a tier from the start of the
// window: one day, seven days or thirty days.
func (s *PricingService) ValidityWindow(passType string, validFrom time.Time) (time.Time, error) {
	d, ok := tierDurations[passType]
	if !ok {
		return time.Time{}, fmt.Errorf("invalid pass type: %s", passType)
	}
	return validFrom.Add(d), nil
}
