package services

import (
	"testing"
	"time"

	"github.com/chennaitransit/pass-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceAllInOne(t *testing.T) {
	svc := NewPricingService()

	tests := []struct {
		passType string
		want     int64
	}{
		{models.PassTypeOneDay, 100},
		{models.PassTypeWeekly, 400},
		{models.PassTypeMonthly, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.passType, func(t *testing.T) {
			price, err := svc.Price(models.ModeAllInOne, tt.passType, "", "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, price)
		})
	}

	t.Run("Route Fields Ignored", func(t *testing.T) {
		price, err := svc.Price(models.ModeAllInOne, models.PassTypeOneDay, "Guindy", "Velachery")
		require.NoError(t, err)
		assert.Equal(t, int64(100), price)
	})
}

func TestPriceDistanceBased(t *testing.T) {
	svc := NewPricingService()

	t.Run("Bus One Day", func(t *testing.T) {
		// T Nagar (1) to Velachery (3): 2 stops x 10 x 1
		price, err := svc.Price(models.ModeBus, models.PassTypeOneDay, "T Nagar", "Velachery")
		require.NoError(t, err)
		assert.Equal(t, int64(20), price)
	})

	t.Run("Train Weekly", func(t *testing.T) {
		// Chennai Central (0) to Tambaram (2): 2 stops x 10 x 5
		price, err := svc.Price(models.ModeTrain, models.PassTypeWeekly, "Chennai Central", "Tambaram")
		require.NoError(t, err)
		assert.Equal(t, int64(100), price)
	})

	t.Run("Metro Monthly", func(t *testing.T) {
		// Airport (0) to Washermanpet (3): 3 stops x 10 x 20
		price, err := svc.Price(models.ModeMetro, models.PassTypeMonthly, "Airport", "Washermanpet")
		require.NoError(t, err)
		assert.Equal(t, int64(600), price)
	})

	t.Run("Direction Does Not Matter", func(t *testing.T) {
		forward, err := svc.Price(models.ModeBus, models.PassTypeOneDay, "Guindy", "Velachery")
		require.NoError(t, err)
		reverse, err := svc.Price(models.ModeBus, models.PassTypeOneDay, "Velachery", "Guindy")
		require.NoError(t, err)
		assert.Equal(t, forward, reverse)
	})

	t.Run("Same Stop Clamps To Minimum", func(t *testing.T) {
		price, err := svc.Price(models.ModeBus, models.PassTypeMonthly, "Guindy", "Guindy")
		require.NoError(t, err)
		assert.Equal(t, int64(MinimumFare), price)
	})
}

func TestPriceRejectsBadInput(t *testing.T) {
	svc := NewPricingService()

	t.Run("Unknown Start Stop", func(t *testing.T) {
		_, err := svc.Price(models.ModeBus, models.PassTypeOneDay, "Madurai", "Velachery")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unknown Bus stop")
	})

	t.Run("Unknown End Stop", func(t *testing.T) {
		_, err := svc.Price(models.ModeBus, models.PassTypeOneDay, "Guindy", "Madurai")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unknown Bus stop")
	})

	t.Run("Stop From Another Mode", func(t *testing.T) {
		// Tambaram is a Train stop, not a Bus stop
		_, err := svc.Price(models.ModeBus, models.PassTypeOneDay, "Guindy", "Tambaram")
		assert.Error(t, err)
	})

	t.Run("Invalid Mode", func(t *testing.T) {
		_, err := svc.Price("Ferry", models.PassTypeOneDay, "Guindy", "Velachery")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid mode")
	})

	t.Run("Invalid Pass Type", func(t *testing.T) {
		_, err := svc.Price(models.ModeBus, "Yearly", "Guindy", "Velachery")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid pass type")
	})
}

func TestStops(t *testing.T) {
	svc := NewPricingService()

	assert.Equal(t, []string{"Guindy", "T Nagar", "Saidapet", "Velachery"}, svc.Stops(models.ModeBus))
	assert.Equal(t, []string{"Chennai Central", "Egmore", "Tambaram", "Mambalam"}, svc.Stops(models.ModeTrain))
	assert.Equal(t, []string{"Airport", "Ashok Nagar", "Guindy", "Washermanpet"}, svc.Stops(models.ModeMetro))
	assert.Nil(t, svc.Stops(models.ModeAllInOne))
}

func TestValidityWindow(t *testing.T) {
	svc := NewPricingService()
	from := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		passType string
		wantDays int
	}{
		{models.PassTypeOneDay, 1},
		{models.PassTypeWeekly, 7},
		{models.PassTypeMonthly, 30},
	}

	for _, tt := range tests {
		t.Run(tt.passType, func(t *testing.T) {
			to, err := svc.ValidityWindow(tt.passType, from)
			require.NoError(t, err)
			assert.Equal(t, from.AddDate(0, 0, tt.wantDays), to)
		})
	}

	t.Run("Invalid Pass Type", func(t *testing.T) {
		_, err := svc.ValidityWindow("Yearly", from)
		assert.Error(t, err)
	})
}
