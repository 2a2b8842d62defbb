package security

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const siteVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

// RecaptchaVerifier is the pass/fail bot gate consulted once before slot
// fetching. A disabled verifier (empty secret) passes everything, which is
// the development mode; any verification failure fails closed.
type RecaptchaVerifier struct {
	http      *http.Client
	verifyURL string
	secret    string
	minScore  float64
	log       *zap.Logger
}

func NewRecaptchaVerifier(secret string, minScore float64, log *zap.Logger) *RecaptchaVerifier {
	return &RecaptchaVerifier{
		http:      &http.Client{Timeout: 5 * time.Second},
		verifyURL: siteVerifyURL,
		secret:    secret,
		minScore:  minScore,
		log:       log,
	}
}

func (v *RecaptchaVerifier) Enabled() bool { return v.secret != "" }

func (v *RecaptchaVerifier) Verify(ctx context.Context, token string) bool {
	if !v.Enabled() {
		return true
	}
	if token == "" {
		return false
	}

	form := url.Values{}
	form.Set("secret", v.secret)
	form.Set("response", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.http.Do(req)
	if err != nil {
		v.log.Warn("recaptcha verify request failed", zap.Error(err))
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false
	}

	var result struct {
		Success bool     `json:"success"`
		Score   *float64 `json:"score"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false
	}
	if !result.Success {
		return false
	}
	// v2 responses carry no score
	return result.Score == nil || *result.Score >= v.minScore
}
