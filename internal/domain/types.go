package domain

import (
	"time"

	"github.com/google/uuid"
)

type TicketStatus string

const (
	TicketPending  TicketStatus = "pending"
	TicketActive   TicketStatus = "active"
	TicketRedeemed TicketStatus = "redeemed"
	TicketExpired  TicketStatus = "expired"
)

// Terminal reports whether the status allows no further transitions.
func (s TicketStatus) Terminal() bool {
	return s == TicketRedeemed || s == TicketExpired
}

// OwnerProfile is the buyer identity captured at purchase time.
// DocumentID is optional at purchase and required only for prize claims.
type OwnerProfile struct {
	FullName   string
	Phone      string
	DocumentID string
}

// Ticket is one purchasable 4-digit number entry. Number is unique among
// tickets whose status is pending or active. Price is fixed at reservation
// and never recomputed.
type Ticket struct {
	ID          uuid.UUID
	Code        string
	Number      string
	OwnerPhone  string
	Owner       OwnerProfile
	Price       int64
	IsBoosted   bool
	Status      TicketStatus
	CreatedAt   time.Time
	ActivatedAt *time.Time
}

// WalletAccount holds the balance for one phone number. A missing row
// means a zero balance; accounts are created implicitly on first credit.
type WalletAccount struct {
	Phone   string
	Balance int64
}

type PrizeTier string

const (
	TierJackpot PrizeTier = "jackpot"
	TierDaily   PrizeTier = "daily"
)

// WinnerSnapshot is copied by value at draw time so later edits to the
// winning ticket cannot alter a recorded draw.
type WinnerSnapshot struct {
	TicketID uuid.UUID
	Code     string
	Number   string
	FullName string
	Phone    string
}

// DrawResult is an append-only record of one completed draw.
type DrawResult struct {
	ID            uuid.UUID
	DrawnAt       time.Time
	WinningNumber string
	PrizeTier     PrizeTier
	PrizeAmount   int64
	Boosted       bool
	Winner        *WinnerSnapshot
}

// Settings is the single-row prize and pricing configuration. PoolCutPercent
// is the share of each confirmed ticket price credited to AccumulatedPool.
type Settings struct {
	TicketPrice        int64
	BoostMultiplier    int64
	JackpotAmount      int64
	DailyPrizeAmount   int64
	BoostedPrizeAmount int64
	AccumulatedPool    int64
	PoolCutPercent     int64
}

// BuyerCount is one leaderboard row, aggregated over active tickets.
type BuyerCount struct {
	DocumentID string
	FullName   string
	Count      int64
}
