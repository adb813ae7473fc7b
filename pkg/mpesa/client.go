package mpesa

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sokohub/sokohub-backend/pkg/config"
	pkgerrors "github.com/sokohub/sokohub-backend/pkg/errors"
	"github.com/sokohub/sokohub-backend/pkg/logger"
)

const (
	sandboxEnv    = "sandbox"
	productionEnv = "production"

	tokenPath   = "/oauth/v1/generate?grant_type=client_credentials"
	stkPushPath = "/mpesa/stkpush/v1/processrequest"

	timestampLayout = "20060102150405"

	// tokenExpiryMargin renews the cached token slightly early so an
	// almost-expired token is never sent with a push.
	tokenExpiryMargin = 30 * time.Second
	defaultTokenTTL   = time.Hour

	// ResponseCodeAccepted is Daraja's "request accepted for processing" code.
	ResponseCodeAccepted = "0"
)

var (
	errConsumerKeyRequired = errors.New("mpesa consumer key is required")
	errPasskeyRequired     = errors.New("mpesa passkey is required")
	errCallbackRequired    = errors.New("mpesa callback url is required")
	errLoggerRequired      = errors.New("mpesa logger is required")
	errInvalidMpesaEnv     = fmt.Errorf("mpesa environment must be %q or %q", sandboxEnv, productionEnv)
)

var baseURLs = map[string]string{
	sandboxEnv:    "https://sandbox.safaricom.co.ke",
	productionEnv: "https://api.safaricom.co.ke",
}

// Client wraps the Daraja STK-push API with centralized auth, logging, and
// error mapping. Calls are plain remote requests; callers must never invoke
// them while holding a database transaction.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	environment    string
	consumerKey    string
	consumerSecret string
	shortcode      string
	passkey        string
	callbackURL    string
	logger         *logger.Logger
	now            func() time.Time

	tokenMu     sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewClient initializes the Daraja wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.MpesaConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	consumerKey := strings.TrimSpace(cfg.ConsumerKey)
	if consumerKey == "" {
		return nil, errConsumerKeyRequired
	}
	passkey := strings.TrimSpace(cfg.Passkey)
	if passkey == "" {
		return nil, errPasskeyRequired
	}
	callbackURL := strings.TrimSpace(cfg.CallbackURL)
	if callbackURL == "" {
		return nil, errCallbackRequired
	}

	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		httpClient:     &http.Client{Timeout: timeout},
		baseURL:        baseURLs[env],
		environment:    env,
		consumerKey:    consumerKey,
		consumerSecret: strings.TrimSpace(cfg.ConsumerSecret),
		shortcode:      strings.TrimSpace(cfg.BusinessShortcode),
		passkey:        passkey,
		callbackURL:    callbackURL,
		logger:         logg,
		now:            time.Now,
	}

	logg.Info(ctx, "mpesa client initialized")
	return c, nil
}

// Environment reports the normalized Daraja environment.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// STKPushRequest describes a customer-to-business push payment.
type STKPushRequest struct {
	PayerPhone       string
	PayeePhone       string
	Amount           decimal.Decimal
	AccountReference string
	Description      string
}

// STKPushResponse carries Daraja's synchronous acknowledgment. The
// CheckoutRequestID is the reconciliation key for the asynchronous callback.
type STKPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

// Accepted reports whether Daraja accepted the push request for processing.
func (r *STKPushResponse) Accepted() bool {
	return r != nil && r.ResponseCode == ResponseCodeAccepted
}

// InitiateSTKPush issues the push request and returns the provider response.
func (c *Client) InitiateSTKPush(ctx context.Context, req STKPushRequest) (*STKPushResponse, error) {
	if strings.TrimSpace(req.PayerPhone) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payer phone is required")
	}
	if strings.TrimSpace(req.PayeePhone) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payee phone is required")
	}
	if !req.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	timestamp := c.now().Format(timestampLayout)
	reference := req.AccountReference
	if reference == "" {
		reference = "SokoHubOrder"
	}
	description := req.Description
	if description == "" {
		description = "Payment for produce"
	}

	payload := map[string]any{
		"BusinessShortCode": c.shortcode,
		"Password":          c.password(timestamp),
		"Timestamp":         timestamp,
		"TransactionType":   "CustomerPayBillOnline",
		"Amount":            req.Amount.Round(0).IntPart(),
		"PartyA":            req.PayerPhone,
		"PartyB":            req.PayeePhone,
		"PhoneNumber":       req.PayerPhone,
		"CallBackURL":       c.callbackURL,
		"AccountReference":  reference,
		"TransactionDesc":   description,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode stk push payload")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+stkPushPath, bytes.NewReader(body))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build stk push request")
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "call mpesa stk push")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("mpesa stk push returned status %d", resp.StatusCode))
	}

	var out STKPushResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode stk push response")
	}
	return &out, nil
}

// accessToken returns the cached bearer token, fetching a fresh one when the
// cache is empty or about to expire.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if c.token != "" && c.now().Before(c.tokenExpiry.Add(-tokenExpiryMargin)) {
		return c.token, nil
	}

	token, ttl, err := c.fetchToken(ctx)
	if err != nil {
		return "", err
	}
	c.token = token
	c.tokenExpiry = c.now().Add(ttl)
	return token, nil
}

func (c *Client) fetchToken(ctx context.Context) (string, time.Duration, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+tokenPath, nil)
	if err != nil {
		return "", 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build token request")
	}
	httpReq.SetBasicAuth(c.consumerKey, c.consumerSecret)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch mpesa access token")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("mpesa token endpoint returned status %d", resp.StatusCode))
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   string `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode token response")
	}
	if payload.AccessToken == "" {
		return "", 0, pkgerrors.New(pkgerrors.CodeDependency, "mpesa token response missing access_token")
	}

	// Daraja reports expires_in as a string of seconds.
	ttl := defaultTokenTTL
	if secs, err := strconv.Atoi(payload.ExpiresIn); err == nil && secs > 0 {
		ttl = time.Duration(secs) * time.Second
	}
	return payload.AccessToken, ttl, nil
}

// password derives the STK password: base64(shortcode + passkey + timestamp).
func (c *Client) password(timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(c.shortcode + c.passkey + timestamp))
}

func normalizeEnv(env string) (string, error) {
	switch env {
	case sandboxEnv, productionEnv:
		return env, nil
	default:
		return "", errInvalidMpesaEnv
	}
}
