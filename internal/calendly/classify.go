package calendly

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/Domenick1991/leadbooking/internal/domain"
)

var (
	slotTakenPattern   = regexp.MustCompile(`(?i)unavailable|already|taken|conflict`)
	invalidTimePattern = regexp.MustCompile(`(?i)start_time|end_time|invalid|in the future|range`)
)

// Classify maps a provider failure onto the booking error taxonomy:
// conflicts become SLOT_TAKEN, time-parameter complaints become
// INVALID_TIME, everything else stays an opaque PROVIDER_ERROR carrying the
// raw payload.
func Classify(apiErr *APIError) *domain.BookingError {
	body := apiErr.Body

	if apiErr.Status == 409 {
		return errWithDetail(domain.CodeSlotTaken, "selected slot already booked", body)
	}

	if apiErr.Status == 400 {
		var parsed struct {
			Message string `json:"message"`
			Details []struct {
				Parameter string `json:"parameter"`
			} `json:"details"`
		}
		if err := json.Unmarshal(body, &parsed); err == nil {
			for _, d := range parsed.Details {
				p := strings.ToLower(d.Parameter)
				if p == "start_time" || p == "end_time" {
					return errWithDetail(domain.CodeInvalidTime, "selected time is invalid or out of range", body)
				}
			}
			if parsed.Message != "" && invalidTimePattern.MatchString(parsed.Message) {
				return errWithDetail(domain.CodeInvalidTime, parsed.Message, body)
			}
		}
	}

	if slotTakenPattern.Match(body) {
		return errWithDetail(domain.CodeSlotTaken, "selected slot is no longer available", body)
	}

	return errWithDetail(domain.CodeProviderError, "scheduling provider error", body)
}

func errWithDetail(code domain.ErrorCode, message string, body []byte) *domain.BookingError {
	return &domain.BookingError{Code: code, Message: message, Detail: json.RawMessage(body)}
}
