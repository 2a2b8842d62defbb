package calendly

import (
	"encoding/json"
	"regexp"
)

// The provider has shipped slot timestamps under several field names and
// nesting levels over time. Extraction is an ordered list of strategies,
// each returning what it found; the first non-empty result wins.

var isoPattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?Z`)

type extractStrategy struct {
	name string
	fn   func(body []byte) []string
}

var extractStrategies = []extractStrategy{
	{name: "available_times", fn: extractTopLevel},
	{name: "collection.available_times", fn: extractCollection},
	{name: "iso_scan", fn: extractISOScan},
}

// ExtractTimes probes the response body for slot timestamps.
func ExtractTimes(body []byte) []string {
	for _, s := range extractStrategies {
		if times := s.fn(body); len(times) > 0 {
			return times
		}
	}
	return nil
}

type slotTime struct {
	StartTimeUTC string `json:"start_time_utc"`
	StartTime    string `json:"start_time"`
	Start        string `json:"start"`
}

func (s slotTime) value() string {
	switch {
	case s.StartTimeUTC != "":
		return s.StartTimeUTC
	case s.StartTime != "":
		return s.StartTime
	default:
		return s.Start
	}
}

func extractTopLevel(body []byte) []string {
	var parsed struct {
		AvailableTimes []slotTime `json:"available_times"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil
	}
	return collectSlotTimes(parsed.AvailableTimes)
}

func extractCollection(body []byte) []string {
	var parsed struct {
		Collection []struct {
			AvailableTimes []slotTime `json:"available_times"`
		} `json:"collection"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil
	}
	var out []string
	for _, c := range parsed.Collection {
		out = append(out, collectSlotTimes(c.AvailableTimes)...)
	}
	return out
}

func extractISOScan(body []byte) []string {
	return isoPattern.FindAllString(string(body), -1)
}

func collectSlotTimes(slots []slotTime) []string {
	var out []string
	for _, s := range slots {
		if v := s.value(); v != "" {
			out = append(out, v)
		}
	}
	return out
}
