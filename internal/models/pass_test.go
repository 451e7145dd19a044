package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatusAt(t *testing.T) {
	validTo := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	pass := Pass{ValidTo: validTo}

	t.Run("Active Before Expiry Day", func(t *testing.T) {
		now := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
		assert.Equal(t, PassStatusActive, pass.StatusAt(now))
	})

	t.Run("Active Through End Of Expiry Day", func(t *testing.T) {
		// valid_to is 09:00 but the pass holds until the day ends
		now := time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC)
		assert.Equal(t, PassStatusActive, pass.StatusAt(now))
	})

	t.Run("Expired Next Day", func(t *testing.T) {
		now := time.Date(2026, 3, 11, 0, 0, 1, 0, time.UTC)
		assert.Equal(t, PassStatusExpired, pass.StatusAt(now))
	})
}

func TestNewPassView(t *testing.T) {
	pass := Pass{ValidTo: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)}

	view := NewPassView(pass, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, PassStatusActive, view.Status)

	view = NewPassView(pass, time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, PassStatusExpired, view.Status)
}

func TestPurchaseRequestValidate(t *testing.T) {
	t.Run("Valid Route Pass", func(t *testing.T) {
		req := PurchaseRequest{
			Mode:          ModeBus,
			PassType:      PassTypeOneDay,
			StartLocation: "Guindy",
			EndLocation:   "Velachery",
		}
		assert.NoError(t, req.Validate())
	})

	t.Run("Valid All In One Without Route", func(t *testing.T) {
		req := PurchaseRequest{Mode: ModeAllInOne, PassType: PassTypeMonthly}
		assert.NoError(t, req.Validate())
	})

	t.Run("Missing Mode", func(t *testing.T) {
		req := PurchaseRequest{PassType: PassTypeOneDay}
		assert.Error(t, req.Validate())
	})

	t.Run("Invalid Mode", func(t *testing.T) {
		req := PurchaseRequest{Mode: "Ferry", PassType: PassTypeOneDay, StartLocation: "A", EndLocation: "B"}
		assert.Error(t, req.Validate())
	})

	t.Run("Invalid Pass Type", func(t *testing.T) {
		req := PurchaseRequest{Mode: ModeBus, PassType: "Yearly", StartLocation: "A", EndLocation: "B"}
		assert.Error(t, req.Validate())
	})

	t.Run("Route Required For Distance Modes", func(t *testing.T) {
		req := PurchaseRequest{Mode: ModeMetro, PassType: PassTypeOneDay}
		assert.Error(t, req.Validate())
	})

	t.Run("Window Order", func(t *testing.T) {
		from := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
		till := from.AddDate(0, 0, -1)
		req := PurchaseRequest{
			Mode:          ModeBus,
			PassType:      PassTypeOneDay,
			StartLocation: "Guindy",
			EndLocation:   "Velachery",
			ValidFrom:     &from,
			ValidTill:     &till,
		}
		assert.Error(t, req.Validate())
	})
}

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole(RolePassenger))
	assert.True(t, ValidRole(RoleManager))
	assert.True(t, ValidRole(RoleAdmin))
	assert.False(t, ValidRole("Conductor"))
	assert.False(t, ValidRole(""))
}

func TestValidModeAndPassType(t *testing.T) {
	assert.True(t, ValidMode(ModeBus))
	assert.True(t, ValidMode(ModeAllInOne))
	assert.False(t, ValidMode("ferry"))

	assert.True(t, ValidPassType(PassTypeWeekly))
	assert.False(t, ValidPassType("one day"))
}
