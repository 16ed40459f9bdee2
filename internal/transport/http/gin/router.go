package httpgin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/ganarapp/sorteo/internal/domain"
	"github.com/ganarapp/sorteo/internal/gateway"
	redisrepo "github.com/ganarapp/sorteo/internal/repository/redis"
	"github.com/ganarapp/sorteo/internal/service"
	"github.com/ganarapp/sorteo/internal/service/draw"
	"github.com/ganarapp/sorteo/internal/service/reconcile"
	"github.com/ganarapp/sorteo/internal/service/registry"
	"github.com/ganarapp/sorteo/internal/service/wallet"
)

func NewRouter(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
	gateways *gateway.Registry,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(logger), RequestIDMiddleware(), CORS())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// health + metrics
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public API
	r.POST("/tickets", handleReserve(svcs, idem))
	r.POST("/tickets/random", handleReserveRandom(svcs))
	r.GET("/tickets/:code", handleGetTicket(svcs))
	r.PATCH("/tickets/:code/owner", handleUpdateOwner(svcs))
	r.GET("/numbers/:number", handleNumberAvailability(svcs))

	r.GET("/wallet/:phone", requireAccessCode(svcs), handleGetBalance(svcs))
	r.GET("/wallet/:phone/tickets", requireAccessCode(svcs), handleListTickets(svcs))
	r.POST("/wallet/pay", handlePayFromBalance(svcs))

	r.POST("/auth/codes", handleIssueCode(svcs))
	r.POST("/auth/codes/validate", handleValidateCode(svcs))

	r.GET("/payments/return", handleGatewayReturn(svcs, gateways))
	r.POST("/payments/:gateway/callback", handleGatewayCallback(svcs, gateways))

	r.GET("/draws", handleListDraws(svcs))

	// Admin-API
	admin := r.Group("/admin")
	{
		admin.POST("/wallet/:phone/credit", handleCredit(svcs))
		admin.POST("/tickets/:ref/approve", handleApprove(svcs))
		admin.POST("/draws", handleRecordDraw(svcs))
		admin.GET("/top-buyers", handleTopBuyers(svcs))
		admin.GET("/settings", handleGetSettings(svcs))
		admin.PUT("/settings", handleUpdateSettings(svcs))
	}

	return r
}

// --- Handlers with Swagger annotations ---

// @Summary  Reserve a chosen 4-digit number (idempotent)
// @Param    req body  ReserveRequest true "payload"
// @Header   201 {string} Idempotency-Key "echo"
// @Success  201 {object} TicketResponse
// @Failure  400 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "number taken / idem in progress"
// @Failure  429 {object} ErrorResponse "rate limited"
// @Router   /tickets [post]
func handleReserve(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ReserveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		var idemStorageKey string
		if idem != nil && idemKey != "" {
			idemStorageKey = redisrepo.KeyIdemReserve(idemKey)

			if payload, ok, _ := idem.GetResult(
				c.Request.Context(),
				idemStorageKey,
			); ok {
				c.Header("Idempotency-Key", idemKey)
				c.Data(
					http.StatusCreated,
					"application/json; charset=utf-8",
					[]byte(payload),
				)
				return
			}

			locked, err := idem.AcquireLock(
				c.Request.Context(),
				idemStorageKey,
				60*time.Second,
			)
			if err != nil {
				respondErr(c, err)
				return
			}
			if !locked {
				if payload, ok, _ := idem.GetResult(
					c.Request.Context(),
					idemStorageKey,
				); ok {
					c.Header("Idempotency-Key", idemKey)
					c.Data(
						http.StatusCreated,
						"application/json; charset=utf-8",
						[]byte(payload),
					)
					return
				}
				c.Header("Retry-After", "1")
				c.JSON(
					http.StatusConflict,
					ErrorResponse{Error: "idempotency key in progress"},
				)
				return
			}
		}

		ticket, err := svcs.Registry.Reserve(
			c.Request.Context(),
			req.Number,
			domain.OwnerProfile{
				FullName:   req.FullName,
				Phone:      req.Phone,
				DocumentID: req.DocumentID,
			},
			req.Boosted,
			"ip:"+c.ClientIP(),
		)
		if err != nil {
			if idemStorageKey != "" && idem != nil {
				_ = idem.Release(c.Request.Context(), idemStorageKey)
			}
			respondErr(c, err)
			return
		}

		resp := toTicketResponse(ticket)

		if idemStorageKey != "" && idem != nil {
			b, _ := json.Marshal(resp)
			_ = idem.SaveResult(c.Request.Context(), idemStorageKey, string(b))
			c.Header("Idempotency-Key", idemKey)
		}

		c.JSON(http.StatusCreated, resp)
	}
}

// @Summary  Reserve a random free number
// @Param    req body  ReserveRandomRequest true "payload"
// @Success  201 {object} TicketResponse
// @Failure  409 {object} ErrorResponse "number space exhausted"
// @Router   /tickets/random [post]
func handleReserveRandom(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ReserveRandomRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		ticket, err := svcs.Registry.ReserveRandom(
			c.Request.Context(),
			domain.OwnerProfile{
				FullName:   req.FullName,
				Phone:      req.Phone,
				DocumentID: req.DocumentID,
			},
			req.Boosted,
			"ip:"+c.ClientIP(),
		)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusCreated, toTicketResponse(ticket))
	}
}

// @Summary  Get ticket by code (QR verify)
// @Param    code  path  string  true  "Ticket code"
// @Success  200 {object} TicketResponse
// @Failure  404 {object} ErrorResponse
// @Router   /tickets/{code} [get]
func handleGetTicket(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, err := svcs.Registry.Get(c.Request.Context(), c.Param("code"))
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, toTicketResponse(t))
	}
}

// @Summary  Update ticket owner profile (claim / KYC)
// @Param    code  path  string  true  "Ticket code"
// @Param    req body  UpdateOwnerRequest true "payload"
// @Success  200 {object} TicketResponse
// @Router   /tickets/{code}/owner [patch]
func handleUpdateOwner(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateOwnerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		ref := c.Param("code")
		err := svcs.Registry.UpdateOwner(c.Request.Context(), ref, domain.OwnerProfile{
			FullName:   req.FullName,
			DocumentID: req.DocumentID,
		})
		if err != nil {
			respondErr(c, err)
			return
		}

		t, err := svcs.Registry.Get(c.Request.Context(), ref)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, toTicketResponse(t))
	}
}

// @Summary  Check whether a 4-digit number is free
// @Param    number path  string true "4-digit number"
// @Success  200 {object} AvailabilityResponse
// @Failure  400 {object} ErrorResponse
// @Router   /numbers/{number} [get]
func handleNumberAvailability(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		number := c.Param("number")

		taken, err := svcs.Registry.IsTaken(c.Request.Context(), number)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, AvailabilityResponse{Number: number, Taken: taken})
	}
}

// requireAccessCode gates wallet visibility behind the one-time code
// issued for the phone in the path.
func requireAccessCode(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		code := c.GetHeader("X-Access-Code")
		if code == "" {
			code = c.Query("code")
		}

		ok, err := svcs.Access.Validate(c.Request.Context(), c.Param("phone"), code)
		if err != nil {
			respondErr(c, err)
			c.Abort()
			return
		}
		if !ok {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid access code"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// @Summary  Get wallet balance
// @Param    phone path   string true "Phone"
// @Param    code  query  string false "Access code (or X-Access-Code header)"
// @Success  200 {object} BalanceResponse
// @Failure  401 {object} ErrorResponse
// @Router   /wallet/{phone} [get]
func handleGetBalance(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		phone := c.Param("phone")
		balance, err := svcs.Wallet.GetBalance(c.Request.Context(), phone)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, BalanceResponse{
			Phone:   domain.NormalizePhone(phone),
			Balance: balance,
		})
	}
}

// @Summary  List tickets for a phone
// @Param    phone path   string true "Phone"
// @Success  200 {array} TicketResponse
// @Failure  401 {object} ErrorResponse
// @Router   /wallet/{phone}/tickets [get]
func handleListTickets(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		tickets, err := svcs.Registry.ListByPhone(c.Request.Context(), c.Param("phone"))
		if err != nil {
			respondErr(c, err)
			return
		}

		out := make([]TicketResponse, 0, len(tickets))
		for i := range tickets {
			out = append(out, toTicketResponse(&tickets[i]))
		}

		c.JSON(http.StatusOK, out)
	}
}

// @Summary  Pay a pending ticket from wallet balance
// @Param    req body  PayRequest true "payload"
// @Success  200 {object} TicketResponse
// @Failure  402 {object} ErrorResponse "insufficient funds"
// @Failure  409 {object} ErrorResponse "already paid / activation failed"
// @Router   /wallet/pay [post]
func handlePayFromBalance(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PayRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		// The amount due is the price fixed at reservation, never the
		// current settings price.
		t, err := svcs.Registry.Get(c.Request.Context(), req.TicketRef)
		if err != nil {
			respondErr(c, err)
			return
		}

		paid, err := svcs.Wallet.PayFromBalance(
			c.Request.Context(),
			req.Phone,
			req.TicketRef,
			t.Price,
		)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, toTicketResponse(paid))
	}
}

// @Summary  Issue a one-time access code for a phone
// @Param    req body  IssueCodeRequest true "payload"
// @Success  201 {object} IssueCodeResponse
// @Router   /auth/codes [post]
func handleIssueCode(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req IssueCodeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		code, err := svcs.Access.IssueCode(c.Request.Context(), req.Phone)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusCreated, IssueCodeResponse{Code: code})
	}
}

// @Summary  Validate an access code
// @Param    req body  ValidateCodeRequest true "payload"
// @Success  200 {object} ValidateCodeResponse
// @Router   /auth/codes/validate [post]
func handleValidateCode(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ValidateCodeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		ok, err := svcs.Access.Validate(c.Request.Context(), req.Phone, req.Code)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, ValidateCodeResponse{Valid: ok})
	}
}

// @Summary  Gateway redirect return (buyer lands here after paying)
// @Success  200 {object} ConfirmResponse
// @Failure  404 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "reservation expired"
// @Router   /payments/return [get]
func handleGatewayReturn(svcs *service.Services, gateways *gateway.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		ref, gwName, ok := gateways.Resolve(c.Request.URL.Query())
		if !ok {
			badRequest(c, "no approved payment in return parameters")
			return
		}

		res, err := svcs.Reconcile.Confirm(c.Request.Context(), ref, gwName)
		if err != nil {
			respondErr(c, err)
			return
		}

		respondConfirm(c, res)
	}
}

// @Summary  Gateway server-to-server callback
// @Param    gateway path  string true "Gateway name"
// @Param    req body  CallbackRequest true "payload"
// @Success  200 {object} ConfirmResponse
// @Router   /payments/{gateway}/callback [post]
func handleGatewayCallback(svcs *service.Services, gateways *gateway.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		gw, ok := gateways.Get(c.Param("gateway"))
		if !ok {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "unknown gateway"})
			return
		}

		var req CallbackRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		res, err := svcs.Reconcile.Confirm(c.Request.Context(), req.Reference, gw.Name())
		if err != nil {
			respondErr(c, err)
			return
		}

		respondConfirm(c, res)
	}
}

// @Summary  List draw history
// @Param    limit query int false "page size"
// @Success  200 {array} DrawResponse
// @Router   /draws [get]
func handleListDraws(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := parseIntDefault(c.Query("limit"), 50)

		draws, err := svcs.Draw.History(c.Request.Context(), limit)
		if err != nil {
			respondErr(c, err)
			return
		}

		out := make([]DrawResponse, 0, len(draws))
		for i := range draws {
			out = append(out, toDrawResponse(&draws[i]))
		}

		// ETag + Cache-Control 60s
		writeJSONWithCache(c, http.StatusOK, out, "public, max-age=60", true)
	}
}

// @Summary  Credit a wallet (admin top-up)
// @Param    phone path  string true "Phone"
// @Param    req body  CreditRequest true "payload"
// @Success  200 {object} BalanceResponse
// @Router   /admin/wallet/{phone}/credit [post]
func handleCredit(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreditRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		phone := c.Param("phone")
		if err := svcs.Wallet.Credit(c.Request.Context(), phone, req.Amount); err != nil {
			respondErr(c, err)
			return
		}

		balance, err := svcs.Wallet.GetBalance(c.Request.Context(), phone)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, BalanceResponse{
			Phone:   domain.NormalizePhone(phone),
			Balance: balance,
		})
	}
}

// @Summary  Manually approve a ticket payment
// @Param    ref  path  string  true  "Ticket id or code"
// @Success  200 {object} ConfirmResponse
// @Router   /admin/tickets/{ref}/approve [post]
func handleApprove(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := svcs.Reconcile.Confirm(c.Request.Context(), c.Param("ref"), "manual")
		if err != nil {
			respondErr(c, err)
			return
		}

		respondConfirm(c, res)
	}
}

// @Summary  Record a draw result
// @Param    req body  RecordDrawRequest true "payload"
// @Success  201 {object} DrawResponse
// @Router   /admin/draws [post]
func handleRecordDraw(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RecordDrawRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		d, err := svcs.Draw.RecordDraw(c.Request.Context(), req.WinningNumber)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusCreated, toDrawResponse(d))
	}
}

// @Summary  Top buyers leaderboard
// @Param    limit query int false "page size"
// @Success  200 {array} domain.BuyerCount
// @Router   /admin/top-buyers [get]
func handleTopBuyers(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := parseIntDefault(c.Query("limit"), 10)

		out, err := svcs.Registry.TopBuyers(c.Request.Context(), limit)
		if err != nil {
			respondErr(c, err)
			return
		}

		// ETag + Cache-Control 15s
		writeJSONWithCache(c, http.StatusOK, out, "public, max-age=15", true)
	}
}

// @Summary  Get prize/pricing settings
// @Success  200 {object} SettingsPayload
// @Router   /admin/settings [get]
func handleGetSettings(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := svcs.Settings.Get(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, SettingsPayload{
			TicketPrice:        s.TicketPrice,
			BoostMultiplier:    s.BoostMultiplier,
			JackpotAmount:      s.JackpotAmount,
			DailyPrizeAmount:   s.DailyPrizeAmount,
			BoostedPrizeAmount: s.BoostedPrizeAmount,
			AccumulatedPool:    s.AccumulatedPool,
			PoolCutPercent:     s.PoolCutPercent,
		})
	}
}

// @Summary  Update prize/pricing settings
// @Param    req body  SettingsPayload true "payload"
// @Success  200 {object} SettingsPayload
// @Router   /admin/settings [put]
func handleUpdateSettings(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SettingsPayload
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		err := svcs.Settings.Update(c.Request.Context(), &domain.Settings{
			TicketPrice:        req.TicketPrice,
			BoostMultiplier:    req.BoostMultiplier,
			JackpotAmount:      req.JackpotAmount,
			DailyPrizeAmount:   req.DailyPrizeAmount,
			BoostedPrizeAmount: req.BoostedPrizeAmount,
			AccumulatedPool:    req.AccumulatedPool,
			PoolCutPercent:     req.PoolCutPercent,
		})
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, req)
	}
}

// --- Helpers ---

func respondConfirm(c *gin.Context, res reconcile.Result) {
	resp := ConfirmResponse{Outcome: string(res.Outcome)}
	if res.Ticket != nil {
		t := toTicketResponse(res.Ticket)
		resp.Ticket = &t
	}

	switch res.Outcome {
	case reconcile.OutcomeActivated, reconcile.OutcomeAlreadyActivated:
		c.JSON(http.StatusOK, resp)
	case reconcile.OutcomeNotFound:
		c.JSON(http.StatusNotFound, resp)
	case reconcile.OutcomeExpired:
		// Never re-pend an expired reservation: the number may be
		// re-issued already. Surface the manual-reconciliation path.
		c.JSON(http.StatusConflict, resp)
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	switch {
	// registry service
	case errors.Is(err, registry.ErrInvalidNumber):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "number must be 4 digits"})
		return
	case errors.Is(err, registry.ErrNumberTaken):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "number already taken"})
		return
	case errors.Is(err, registry.ErrNumberSpaceExhausted):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "no free number found, retry"})
		return
	case errors.Is(err, registry.ErrTicketNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "ticket not found"})
		return
	case errors.Is(err, registry.ErrTicketExpired):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "ticket expired"})
		return
	case errors.Is(err, registry.ErrRateLimited):
		c.Header("Retry-After", "60")
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "rate limited"})
		return
	// wallet service
	case errors.Is(err, wallet.ErrInsufficientFunds):
		c.JSON(http.StatusPaymentRequired, ErrorResponse{Error: "insufficient balance"})
		return
	case errors.Is(err, wallet.ErrAlreadyPaid):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "ticket already paid"})
		return
	case errors.Is(err, wallet.ErrActivationFailed):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "activation failed, balance restored"})
		return
	case errors.Is(err, wallet.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "amount must be positive"})
		return
	// draw service
	case errors.Is(err, draw.ErrInvalidNumber):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "winning number must be 4 digits"})
		return
	}

	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}
