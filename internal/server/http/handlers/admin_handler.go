package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/samplestore/internal/domain/errors"
	"github.com/polkiloo/samplestore/internal/domain/model"
	"github.com/polkiloo/samplestore/internal/server/http/dto"
	"github.com/polkiloo/samplestore/internal/server/http/middleware"
)

// AuthHandler processes admin login.
type AuthHandler struct {
	facade AuthFacade
}

// NewAuthHandler creates AuthHandler instance.
func NewAuthHandler(facade AuthFacade) *AuthHandler {
	return &AuthHandler{facade: facade}
}

// Login handles POST /api/admin/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	token, err := h.facade.Login(req.User, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrInvalidCredentials):
			c.Status(http.StatusUnauthorized)
		case errors.Is(err, domainErrors.ErrAdminDisabled):
			c.Status(http.StatusServiceUnavailable)
		default:
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	middleware.SetAuthCookie(c, token)
	c.Status(http.StatusOK)
}

// AdminHandler serves the back-office views.
type AdminHandler struct {
	facade AdminFacade
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(facade AdminFacade) *AdminHandler {
	return &AdminHandler{facade: facade}
}

// Dashboard handles GET /api/admin/dashboard.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.facade.Dashboard(c.Request.Context())
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, dto.DashboardResponse{
		Today:     stats.Today,
		SevenDays: stats.SevenDays,
		Total:     stats.Total,
	})
}

// Sales handles GET /api/admin/sales.
func (h *AdminHandler) Sales(c *gin.Context) {
	limit, offset, ok := paging(c)
	if !ok {
		badRequest(c, "invalid paging")
		return
	}

	sales, err := h.facade.Sales(c.Request.Context(), model.SaleFilter{
		PaymentStatus: model.PaymentStatus(c.Query("status")),
		Limit:         limit,
		Offset:        offset,
	})
	if err != nil {
		if errors.Is(err, domainErrors.ErrInvalidInput) {
			badRequest(c, "invalid status filter")
			return
		}
		c.Status(http.StatusInternalServerError)
		return
	}

	response := make([]dto.SaleResponse, 0, len(sales))
	for _, s := range sales {
		response = append(response, toSaleResponse(s))
	}
	c.JSON(http.StatusOK, response)
}

// Sale handles GET /api/admin/sales/:id.
func (h *AdminHandler) Sale(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		badRequest(c, "invalid sale id")
		return
	}

	sale, err := h.facade.Sale(c.Request.Context(), id)
	if err != nil {
		h.saleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSaleResponse(*sale))
}

// AdvanceFulfillment handles POST /api/admin/sales/:id/fulfillment.
func (h *AdminHandler) AdvanceFulfillment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		badRequest(c, "invalid sale id")
		return
	}
	var req dto.FulfillmentRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
		badRequest(c, "status is required")
		return
	}

	sale, err := h.facade.AdvanceFulfillment(c.Request.Context(), id, model.FulfillmentStatus(req.Status))
	if err != nil {
		if errors.Is(err, domainErrors.ErrInvalidTransition) {
			abortError(c, http.StatusConflict, err.Error())
			return
		}
		h.saleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSaleResponse(*sale))
}

func (h *AdminHandler) saleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainErrors.ErrNotFound), errors.Is(err, domainErrors.ErrSaleNotFound):
		abortError(c, http.StatusNotFound, "sale not found")
	default:
		c.Status(http.StatusInternalServerError)
	}
}

// Withdrawals handles GET /api/admin/withdrawals.
func (h *AdminHandler) Withdrawals(c *gin.Context) {
	limit, offset, ok := paging(c)
	if !ok {
		badRequest(c, "invalid paging")
		return
	}

	items, err := h.facade.Withdrawals(c.Request.Context(), model.WithdrawalStatus(c.Query("status")), limit, offset)
	if err != nil {
		if errors.Is(err, domainErrors.ErrInvalidInput) {
			badRequest(c, "invalid status filter")
			return
		}
		c.Status(http.StatusInternalServerError)
		return
	}

	response := make([]dto.WithdrawalResponse, 0, len(items))
	for _, w := range items {
		response = append(response, toWithdrawalResponse(w))
	}
	c.JSON(http.StatusOK, response)
}

// Withdrawal handles GET /api/admin/withdrawals/:id.
func (h *AdminHandler) Withdrawal(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		badRequest(c, "invalid withdrawal id")
		return
	}

	detail, err := h.facade.Withdrawal(c.Request.Context(), id)
	if err != nil {
		h.withdrawalError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.WithdrawalDetailResponse{
		WithdrawalResponse: toWithdrawalResponse(detail.Withdrawal),
		Ledger: dto.LedgerResponse{
			TotalPaid: detail.Ledger.TotalPaid.StringFixed(2),
			SaleCount: detail.Ledger.SaleCount,
		},
	})
}

// PayWithdrawal handles POST /api/admin/withdrawals/:id/pay.
func (h *AdminHandler) PayWithdrawal(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		badRequest(c, "invalid withdrawal id")
		return
	}

	w, changed, err := h.facade.PayWithdrawal(c.Request.Context(), id)
	if err != nil {
		h.withdrawalError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.PayWithdrawalResponse{
		Withdrawal: toWithdrawalResponse(*w),
		Changed:    changed,
	})
}

func (h *AdminHandler) withdrawalError(c *gin.Context, err error) {
	if errors.Is(err, domainErrors.ErrNotFound) {
		abortError(c, http.StatusNotFound, "withdrawal not found")
		return
	}
	c.Status(http.StatusInternalServerError)
}

func toSaleResponse(s model.Sale) dto.SaleResponse {
	return dto.SaleResponse{
		ID:           s.ID,
		PreferenceID: s.PreferenceID,
		Reference:    s.ExternalReference,
		ReferrerCode: s.ReferrerCode,
		Customer: dto.CustomerResponse{
			Name:     s.Customer.Name,
			Email:    s.Customer.Email,
			Phone:    s.Customer.Phone,
			Document: s.Customer.Document,
		},
		Shipping: dto.AddressRequest{
			PostalCode: s.Shipping.PostalCode,
			Street:     s.Shipping.Street,
			Number:     s.Shipping.Number,
			Complement: s.Shipping.Complement,
			District:   s.Shipping.District,
			City:       s.Shipping.City,
			State:      s.Shipping.State,
		},
		Amount:            s.Amount.StringFixed(2),
		PaymentStatus:     string(s.PaymentStatus),
		FulfillmentStatus: string(s.FulfillmentStatus),
		RedemptionCode:    s.RedemptionCode,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
}

func toWithdrawalResponse(w model.Withdrawal) dto.WithdrawalResponse {
	return dto.WithdrawalResponse{
		ID:            w.ID,
		AffiliateID:   w.AffiliateID,
		AffiliateCode: w.AffiliateCode,
		Amount:        w.Amount.StringFixed(2),
		Status:        string(w.Status),
		PayoutKey:     w.PayoutKey,
		PayoutKeyType: w.PayoutKeyType,
		CreatedAt:     w.CreatedAt,
		PaidAt:        w.PaidAt,
	}
}
