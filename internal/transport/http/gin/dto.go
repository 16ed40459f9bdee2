package httpgin

import (
	"time"

	"github.com/ganarapp/sorteo/internal/domain"
)

type ReserveRequest struct {
	Number     string `json:"number" binding:"required,len=4,numeric"`
	FullName   string `json:"full_name" binding:"required"`
	Phone      string `json:"phone" binding:"required"`
	DocumentID string `json:"document_id"`
	Boosted    bool   `json:"boosted"`
}

type ReserveRandomRequest struct {
	FullName   string `json:"full_name" binding:"required"`
	Phone      string `json:"phone" binding:"required"`
	DocumentID string `json:"document_id"`
	Boosted    bool   `json:"boosted"`
}

type UpdateOwnerRequest struct {
	FullName   string `json:"full_name" binding:"required"`
	DocumentID string `json:"document_id"`
}

type PayRequest struct {
	Phone     string `json:"phone" binding:"required"`
	TicketRef string `json:"ticket_ref" binding:"required"`
}

type CreditRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

type CallbackRequest struct {
	Reference string `json:"reference" binding:"required"`
}

type IssueCodeRequest struct {
	Phone string `json:"phone" binding:"required"`
}

type ValidateCodeRequest struct {
	Phone string `json:"phone" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

type RecordDrawRequest struct {
	WinningNumber string `json:"winning_number" binding:"required,len=4,numeric"`
}

type SettingsPayload struct {
	TicketPrice        int64 `json:"ticket_price" binding:"required,gt=0"`
	BoostMultiplier    int64 `json:"boost_multiplier" binding:"required,gt=0"`
	JackpotAmount      int64 `json:"jackpot_amount" binding:"required,gt=0"`
	DailyPrizeAmount   int64 `json:"daily_prize_amount" binding:"required,gt=0"`
	BoostedPrizeAmount int64 `json:"boosted_prize_amount"`
	AccumulatedPool    int64 `json:"accumulated_pool"`
	PoolCutPercent     int64 `json:"pool_cut_percent" binding:"gte=0,lte=100"`
}

type TicketResponse struct {
	ID          string     `json:"id"`
	Code        string     `json:"code"`
	Number      string     `json:"number"`
	Phone       string     `json:"phone"`
	FullName    string     `json:"full_name"`
	Price       int64      `json:"price"`
	Boosted     bool       `json:"boosted"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	ActivatedAt *time.Time `json:"activated_at,omitempty"`
}

func toTicketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:          t.ID.String(),
		Code:        t.Code,
		Number:      t.Number,
		Phone:       t.OwnerPhone,
		FullName:    t.Owner.FullName,
		Price:       t.Price,
		Boosted:     t.IsBoosted,
		Status:      string(t.Status),
		CreatedAt:   t.CreatedAt,
		ActivatedAt: t.ActivatedAt,
	}
}

type AvailabilityResponse struct {
	Number string `json:"number"`
	Taken  bool   `json:"taken"`
}

type BalanceResponse struct {
	Phone   string `json:"phone"`
	Balance int64  `json:"balance"`
}

type ConfirmResponse struct {
	Outcome string          `json:"outcome"`
	Ticket  *TicketResponse `json:"ticket,omitempty"`
}

type IssueCodeResponse struct {
	Code string `json:"code"`
}

type ValidateCodeResponse struct {
	Valid bool `json:"valid"`
}

type DrawResponse struct {
	ID            string    `json:"id"`
	DrawnAt       time.Time `json:"drawn_at"`
	WinningNumber string    `json:"winning_number"`
	PrizeTier     string    `json:"prize_tier"`
	PrizeAmount   int64     `json:"prize_amount"`
	Boosted       bool      `json:"boosted"`
	WinnerName    string    `json:"winner_name,omitempty"`
	WinnerPhone   string    `json:"winner_phone,omitempty"`
	WinnerNumber  string    `json:"winner_number,omitempty"`
}

func toDrawResponse(d *domain.DrawResult) DrawResponse {
	out := DrawResponse{
		ID:            d.ID.String(),
		DrawnAt:       d.DrawnAt,
		WinningNumber: d.WinningNumber,
		PrizeTier:     string(d.PrizeTier),
		PrizeAmount:   d.PrizeAmount,
		Boosted:       d.Boosted,
	}
	if d.Winner != nil {
		out.WinnerName = d.Winner.FullName
		out.WinnerPhone = d.Winner.Phone
		out.WinnerNumber = d.Winner.Number
	}
	return out
}

type ErrorResponse struct {
	Error string `json:"error"`
}
