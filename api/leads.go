package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/leadbooking/internal/domain"
	"github.com/Domenick1991/leadbooking/internal/service/lead"
	"github.com/gin-gonic/gin"
)

type LeadHandler struct {
	service lead.LeadUseCase
}

type submitRequest struct {
	Name           string `json:"name" binding:"required"`
	Email          string `json:"email" binding:"required,email"`
	Phone          string `json:"phone"`
	Based          string `json:"based" binding:"required"`
	OtherBased     string `json:"otherBased"`
	Occupation     string `json:"occupation" binding:"required"`
	MonthlyIncome  string `json:"monthlyIncome" binding:"required"`
	Willingness    string `json:"willingnessToInvest" binding:"required"`
	Message        string `json:"message"`
	Consent        bool   `json:"consent"`
	RecaptchaToken string `json:"recaptchaToken"`
	Timezone       string `json:"tz"`
}

type submitResponse struct {
	OK             bool     `json:"ok"`
	LeadID         string   `json:"leadId"`
	AvailableTimes []string `json:"availableTimes"`
	BookingToken   string   `json:"bookingToken"`
}

func NewLeadHandler(service lead.LeadUseCase) *LeadHandler {
	return &LeadHandler{service: service}
}

func (h *LeadHandler) Register(router *gin.RouterGroup) {
	router.POST("/submit", h.submit)
}

func (h *LeadHandler) submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "code": string(domain.CodeValidation), "error": err.Error()})
		return
	}

	result, err := h.service.Submit(c.Request.Context(), lead.SubmitInput{
		Profile:        profileFromSubmit(req),
		RecaptchaToken: req.RecaptchaToken,
	})
	if err != nil {
		writeSubmitError(c, err)
		return
	}

	c.JSON(http.StatusOK, submitResponse{
		OK:             true,
		LeadID:         result.LeadID,
		AvailableTimes: result.Slots.Strings(),
		BookingToken:   result.Token,
	})
}

func profileFromSubmit(req submitRequest) domain.BookingProfile {
	return domain.BookingProfile{
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		Based:         req.Based,
		OtherBased:    req.OtherBased,
		Occupation:    req.Occupation,
		MonthlyIncome: req.MonthlyIncome,
		Willingness:   req.Willingness,
		Message:       req.Message,
		Consent:       req.Consent,
		Timezone:      req.Timezone,
	}
}

func writeSubmitError(c *gin.Context, err error) {
	var be *domain.BookingError
	if !errors.As(err, &be) {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "server error"})
		return
	}

	switch be.Code {
	case domain.CodeBotCheckFailed:
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "code": string(be.Code), "error": be.Message})
	case domain.CodeDisqualified:
		redirect, _ := be.Detail.(string)
		c.JSON(http.StatusOK, gin.H{"ok": false, "code": string(be.Code), "redirect": redirect})
	case domain.CodeProviderUnavailable:
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "code": string(be.Code), "error": be.Message})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "code": string(be.Code), "error": be.Message})
	}
}
