package calendly

import (
	"strings"

	"github.com/Domenick1991/leadbooking/internal/domain"
)

// ParseConfirmation pulls the user-facing details out of a successful
// booking response. The provider nests these differently per account, so
// lookup is a breadth-first key search with sensible candidates.
func ParseConfirmation(payload map[string]any) domain.Confirmation {
	conf := domain.Confirmation{Raw: payload}

	if v, ok := findFirstKey(payload, "join_url", "joinUrl"); ok {
		if s, ok := v.(string); ok && strings.HasPrefix(s, "http") {
			conf.JoinURL = s
		}
	}
	if conf.JoinURL == "" {
		// a location object may wrap the join link
		if v, ok := findFirstKey(payload, "location"); ok {
			if loc, ok := v.(map[string]any); ok {
				if j, ok := findFirstKey(loc, "join_url", "url"); ok {
					if s, ok := j.(string); ok && strings.HasPrefix(s, "http") {
						conf.JoinURL = s
					}
				}
			}
		}
	}

	if v, ok := findFirstKey(payload, "start_time", "start_time_utc", "start", "scheduled_start_time"); ok {
		if s, ok := v.(string); ok {
			if t, err := domain.ParseSlot(s); err == nil {
				conf.StartTime = &t
			}
		}
	}

	if v, ok := findFirstKey(payload, "name", "event_name"); ok {
		if s, ok := v.(string); ok {
			conf.EventName = s
		}
	}

	if v, ok := findFirstKey(payload, "email", "invitee_email"); ok {
		if s, ok := v.(string); ok {
			conf.InviteeEmail = s
		}
	}

	return conf
}

// findFirstKey searches payload breadth-first for the first occurrence of
// any of keys, so shallow matches win over nested ones.
func findFirstKey(payload map[string]any, keys ...string) (any, bool) {
	queue := []map[string]any{payload}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, k := range keys {
			if v, ok := cur[k]; ok {
				return v, true
			}
		}
		for _, v := range cur {
			switch child := v.(type) {
			case map[string]any:
				queue = append(queue, child)
			case []any:
				for _, item := range child {
					if m, ok := item.(map[string]any); ok {
						queue = append(queue, m)
					}
				}
			}
		}
	}
	return nil, false
}
