package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/Domenick1991/leadbooking/internal/domain"
	"github.com/Domenick1991/leadbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type bookRequest struct {
	LeadID        string `json:"leadId"`
	Name          string `json:"name" binding:"required"`
	Email         string `json:"email" binding:"required,email"`
	Phone         string `json:"phone"`
	Based         string `json:"based" binding:"required"`
	OtherBased    string `json:"otherBased"`
	Occupation    string `json:"occupation" binding:"required"`
	MonthlyIncome string `json:"monthlyIncome" binding:"required"`
	Willingness   string `json:"willingnessToInvest" binding:"required"`
	Message       string `json:"message"`
	StartTime     string `json:"start_time" binding:"required"`
	Timezone      string `json:"tz"`
	BookingToken  string `json:"bookingToken" binding:"required,min=8"`
}

type bookResponse struct {
	OK        bool   `json:"ok"`
	EventName string `json:"eventName,omitempty"`
	StartTime string `json:"startTime,omitempty"`
	JoinURL   string `json:"joinUrl,omitempty"`
	Email     string `json:"email,omitempty"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/book", h.book)
}

func (h *BookingHandler) book(c *gin.Context) {
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "code": string(domain.CodeValidation), "error": err.Error()})
		return
	}

	conf, err := h.service.Book(c.Request.Context(), booking.BookInput{
		LeadID: req.LeadID,
		Profile: domain.BookingProfile{
			Name:          req.Name,
			Email:         req.Email,
			Phone:         req.Phone,
			Based:         req.Based,
			OtherBased:    req.OtherBased,
			Occupation:    req.Occupation,
			MonthlyIncome: req.MonthlyIncome,
			Willingness:   req.Willingness,
			Message:       req.Message,
			Timezone:      req.Timezone,
		},
		StartTime: req.StartTime,
		Token:     req.BookingToken,
	})
	if err != nil {
		writeBookError(c, err)
		return
	}

	resp := bookResponse{
		OK:        true,
		EventName: conf.EventName,
		JoinURL:   conf.JoinURL,
		Email:     conf.InviteeEmail,
	}
	if conf.StartTime != nil {
		resp.StartTime = conf.StartTime.UTC().Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, resp)
}

// writeBookError maps typed booking outcomes onto the HTTP statuses the
// client state machine keys its transitions on.
func writeBookError(c *gin.Context, err error) {
	var be *domain.BookingError
	if !errors.As(err, &be) {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "server error"})
		return
	}

	body := gin.H{"ok": false, "code": string(be.Code), "error": be.Message}
	if be.Detail != nil {
		body["provider"] = be.Detail
	}

	switch be.Code {
	case domain.CodeSlotTaken:
		c.JSON(http.StatusConflict, body)
	case domain.CodeInvalidTime:
		c.JSON(http.StatusBadRequest, body)
	case domain.CodeInvalidToken:
		c.JSON(http.StatusGone, body)
	default:
		c.JSON(http.StatusBadGateway, body)
	}
}
