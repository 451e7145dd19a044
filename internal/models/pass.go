package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Transport modes
const (
	ModeBus      = "Bus"
	ModeTrain    = "Train"
	ModeMetro    = "Metro"
	ModeAllInOne = "All-in-One"
)

// Pass duration tiers
const (
	PassTypeOneDay  = "One Day"
	PassTypeWeekly  = "Weekly"
	PassTypeMonthly = "Monthly"
)

// Pass status values, derived from valid_to at read time
const (
	PassStatusActive  = "Active"
	PassStatusExpired = "Expired"
)

// AllZones is the canonical route label for All-in-One passes.
const AllZones = "All Zones"

// ValidMode reports whether mode is one of the enumerated transport modes.
func ValidMode(mode string) bool {
	switch mode {
	case ModeBus, ModeTrain, ModeMetro, ModeAllInOne:
		return true
	}
	return false
}

// ValidPassType reports whether passType is one of the enumerated tiers.
func ValidPassType(passType string) bool {
	switch passType {
	case PassTypeOneDay, PassTypeWeekly, PassTypeMonthly:
		return true
	}
	return false
}

// Pass represents a purchased, time-bounded transit entitlement.
// Passes are immutable once created; expiry is derived, never stored.
type Pass struct {
	ID            uuid.UUID `json:"id" db:"id"`
	UserID        uuid.UUID `json:"user_id" db:"user_id"`
	Mode          string    `json:"mode" db:"mode"`
	StartLocation string    `json:"start_location" db:"start_location"`
	EndLocation   string    `json:"end_location" db:"end_location"`
	ValidFrom     time.Time `json:"valid_from" db:"valid_from"`
	ValidTo       time.Time `json:"valid_to" db:"valid_to"`
	PassType      string    `json:"pass_type" db:"pass_type"`
	Amount        int64     `json:"amount" db:"amount"`
	QRCode        string    `json:"qr_code" db:"qr_code"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// StatusAt returns Active while now is on or before the end of the
// valid_to calendar day, Expired afterwards.
func (p *Pass) StatusAt(now time.Time) string {
	endOfDay := time.Date(
		p.ValidTo.Year(), p.ValidTo.Month(), p.ValidTo.Day(),
		23, 59, 59, int(time.Second-time.Nanosecond), p.ValidTo.Location(),
	)
	if now.After(endOfDay) {
		return PassStatusExpired
	}
	return PassStatusActive
}

// PassView is a Pass plus its derived status, for API responses.
type PassView struct {
	Pass
	Status string `json:"status"`
}

// NewPassView computes the derived status against now.
func NewPassView(p Pass, now time.Time) PassView {
	return PassView{Pass: p, Status: p.StatusAt(now)}
}

// PurchaseRequest is the payload for buying a pass. The amount is always
// recomputed server-side; a client-supplied amount is never trusted.
type PurchaseRequest struct {
	Mode          string     `json:"mode"`
	PassType      string     `json:"pass_type"`
	StartLocation string     `json:"start_location"`
	EndLocation   string     `json:"end_location"`
	ValidFrom     *time.Time `json:"valid_from"`
	ValidTill     *time.Time `json:"valid_till"`
	Method        string     `json:"method"`
}

// Validate checks the enum fields that do not need the stop lists.
func (r *PurchaseRequest) Validate() error {
	if r.Mode == "" || r.PassType == "" {
		return fmt.Errorf("mode and pass_type are required")
	}
	if !ValidMode(r.Mode) {
		return fmt.Errorf("invalid mode: %s", r.Mode)
	}
	if !ValidPassType(r.PassType) {
		return fmt.Errorf("invalid pass_type: %s", r.PassType)
	}
	if r.Mode != ModeAllInOne && (r.StartLocation == "" || r.EndLocation == "") {
		return fmt.Errorf("start_location and end_location are required for %s passes", r.Mode)
	}
	if r.ValidFrom != nil && r.ValidTill != nil && r.ValidFrom.After(*r.ValidTill) {
		return fmt.Errorf("valid_from must not be after valid_till")
	}
	return nil
}

// PassStats aggregates pass counts and revenue for a scope.
type PassStats struct {
	TotalPasses   int64 `json:"total_passes"`
	ActivePasses  int64 `json:"active_passes"`
	ExpiredPasses int64 `json:"expired_passes"`
	TotalRevenue  int64 `json:"total_revenue"`
}

// RouteStat is one row of the top-routes aggregation.
type RouteStat struct {
	StartLocation string `json:"start_location" db:"start_location"`
	EndLocation   string `json:"end_location" db:"end_location"`
	TotalAmount   int64  `json:"total_amount" db:"total_amount"`
	PassCount     int64  `json:"pass_count" db:"pass_count"`
}

// ModeStat is one row of the per-mode revenue aggregation.
type ModeStat struct {
	Mode    string `json:"mode" db:"mode"`
	Count   int64  `json:"count" db:"count"`
	Revenue int64  `json:"revenue" db:"revenue"`
}
