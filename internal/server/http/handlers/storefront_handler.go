package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	domainErrors "github.com/polkiloo/samplestore/internal/domain/errors"
	"github.com/polkiloo/samplestore/internal/domain/model"
	"github.com/polkiloo/samplestore/internal/server/http/dto"
)

// StorefrontHandler serves the public checkout flow.
type StorefrontHandler struct {
	facade StorefrontFacade
}

// NewStorefrontHandler constructs StorefrontHandler.
func NewStorefrontHandler(facade StorefrontFacade) *StorefrontHandler {
	return &StorefrontHandler{facade: facade}
}

// Checkout handles POST /api/checkout.
func (h *StorefrontHandler) Checkout(c *gin.Context) {
	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed request")
		return
	}

	res, err := h.facade.Checkout(c.Request.Context(), toCheckoutInput(req))
	if err != nil {
		var fields validation.Errors
		switch {
		case errors.As(err, &fields):
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid checkout", Fields: fieldErrors(fields)})
		case errors.Is(err, domainErrors.ErrInvalidInput):
			badRequest(c, "invalid checkout")
		case errors.Is(err, domainErrors.ErrAffiliateInactive):
			abortError(c, http.StatusUnprocessableEntity, "referrer code inactive or expired")
		case errors.Is(err, domainErrors.ErrUpstreamUnavailable):
			abortError(c, http.StatusServiceUnavailable, "payment gateway unavailable")
		case errors.Is(err, domainErrors.ErrGatewayRejected):
			abortError(c, http.StatusBadGateway, "payment gateway rejected checkout")
		default:
			abortError(c, http.StatusInternalServerError, "checkout failed")
		}
		return
	}

	c.JSON(http.StatusCreated, dto.CheckoutResponse{
		SaleID:           res.SaleID,
		PreferenceID:     res.PreferenceID,
		Reference:        res.Reference,
		InitPoint:        res.InitPoint,
		SandboxInitPoint: res.SandboxInitPoint,
	})
}

// Status handles GET /api/orders/status.
func (h *StorefrontHandler) Status(c *gin.Context) {
	key := model.IdentityKey{
		PreferenceID: c.Query("preference_id"),
		Reference:    c.Query("reference"),
	}
	if key.Empty() {
		badRequest(c, "preference_id or reference is required")
		return
	}

	view, err := h.facade.SaleStatus(c.Request.Context(), key)
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrNotFound):
			abortError(c, http.StatusNotFound, "sale not found")
		case errors.Is(err, domainErrors.ErrInvalidInput):
			badRequest(c, "preference_id or reference is required")
		default:
			abortError(c, http.StatusInternalServerError, "status lookup failed")
		}
		return
	}

	c.JSON(http.StatusOK, dto.SaleStatusResponse{
		IsPaid:            view.IsPaid,
		FulfillmentStatus: string(view.FulfillmentStatus),
		UpdatedAt:         view.UpdatedAt,
		RedemptionCode:    view.RedemptionCode,
	})
}

// ValidateCode handles POST /api/codes/validate.
func (h *StorefrontHandler) ValidateCode(c *gin.Context) {
	var req dto.CodeValidationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed request")
		return
	}

	affiliate, err := h.facade.ValidateCode(c.Request.Context(), req.Code)
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrInvalidInput):
			badRequest(c, "invalid code")
		case errors.Is(err, domainErrors.ErrAffiliateInactive):
			abortError(c, http.StatusNotFound, "code not found or inactive")
		default:
			abortError(c, http.StatusInternalServerError, "code validation failed")
		}
		return
	}

	c.JSON(http.StatusOK, dto.CodeValidationResponse{
		Valid:  true,
		Code:   affiliate.Code,
		Status: string(affiliate.Status),
	})
}

func toCheckoutInput(req dto.CheckoutRequest) model.CheckoutInput {
	return model.CheckoutInput{
		Customer: model.Customer{
			Name:     req.Name,
			Email:    req.Email,
			Phone:    req.Phone,
			Document: req.CPF,
		},
		Shipping: model.Address{
			PostalCode: req.Address.PostalCode,
			Street:     req.Address.Street,
			Number:     req.Address.Number,
			Complement: req.Address.Complement,
			District:   req.Address.District,
			City:       req.Address.City,
			State:      req.Address.State,
		},
		ReferrerCode: req.ReferrerCode,
	}
}

func fieldErrors(errs validation.Errors) map[string]string {
	out := make(map[string]string, len(errs))
	for field, err := range errs {
		out[field] = err.Error()
	}
	return out
}
