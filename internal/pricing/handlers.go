package pricing

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/b2b-pricing/internal/common"
	"github.com/noah-isme/b2b-pricing/internal/merchant"
)

// Handler exposes price calculation over HTTP.
type Handler struct {
	Engine   *Engine
	Validate *validator.Validate
}

type calculateRequest struct {
	CompanyID     string        `json:"companyId" validate:"required"`
	CompanyGroup  string        `json:"companyGroup"`
	CompanyUserID string        `json:"companyUserId"`
	CartTotal     *Money        `json:"cartTotal"`
	Items         []LineRequest `json:"items" validate:"required,min=1,max=250,dive"`
}

// Calculate prices the requested variants for the buyer described in the body.
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Engine == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "pricing engine not configured", nil)
		return
	}
	merchantID, ok := merchant.From(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, common.CodeMerchantRequired, "merchant is required", nil)
		return
	}
	var req calculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid JSON body", nil)
		return
	}
	if err := h.validator().Struct(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid request", validationDetails(err))
		return
	}
	buyer := Buyer{
		CompanyID:     strings.TrimSpace(req.CompanyID),
		CompanyGroup:  strings.TrimSpace(req.CompanyGroup),
		CompanyUserID: strings.TrimSpace(req.CompanyUserID),
	}
	prices, err := h.Engine.CalculatePrices(r.Context(), merchantID, buyer, req.Items, req.CartTotal)
	if err != nil {
		common.WriteError(w, toAppError(err))
		return
	}
	common.Data(w, http.StatusOK, prices)
}

func (h *Handler) validator() *validator.Validate {
	if h.Validate != nil {
		return h.Validate
	}
	return defaultValidator
}

var defaultValidator = validator.New()

func toAppError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return common.NewAppError(common.CodeBadRequest, err.Error(), http.StatusBadRequest, err)
	case errors.Is(err, ErrVariantNotFound):
		return common.NewAppError(common.CodeVariantNotFound, err.Error(), http.StatusNotFound, err)
	default:
		return err
	}
}

func validationDetails(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Namespace()] = fe.Tag()
	}
	return out
}
