package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/example/vitrina/internal/metrics"
	"github.com/example/vitrina/internal/models"
)

const (
	methodCardsCreate        = "cards.create"
	methodCardsGetVerifyCode = "cards.get_verify_code"
	methodCardsVerify        = "cards.verify"
	methodReceiptsCreate     = "receipts.create"
	methodReceiptsPay        = "receipts.pay"

	rpcRequestID = 123
)

// CardGateway tokenizes and verifies cards.
type CardGateway interface {
	CreateCard(ctx context.Context, number, expire string) (string, error)
	RequestVerificationCode(ctx context.Context, token string) (*VerificationChallenge, error)
	VerifyCard(ctx context.Context, token, code string) (*VerifiedCard, error)
}

// ReceiptGateway creates and pays receipts.
type ReceiptGateway interface {
	CreateReceipt(ctx context.Context, amount int64, orderID string, items []ReceiptItem) (string, error)
	PayReceipt(ctx context.Context, receiptID, token string) (models.PaymentStatus, error)
}

// PaymentGateway is the whole Payme surface the application uses.
type PaymentGateway interface {
	CardGateway
	ReceiptGateway
}

// ReceiptItem is one fiscal line of a receipt. Price and Discount are in minor units.
type ReceiptItem struct {
	Title       string `json:"title"`
	Price       int64  `json:"price"`
	Count       int    `json:"count"`
	Code        string `json:"code"`
	PackageCode string `json:"package_code"`
	VatPercent  int    `json:"vat_percent"`
	Discount    int64  `json:"discount"`
}

// VerificationChallenge describes the SMS sent by cards.get_verify_code.
type VerificationChallenge struct {
	Sent  bool   `json:"sent"`
	Phone string `json:"phone"`
	Wait  int    `json:"wait"`
}

// VerifiedCard is the card returned by cards.verify.
type VerifiedCard struct {
	Number    string `json:"number"`
	Expire    string `json:"expire"`
	Token     string `json:"token"`
	Recurrent bool   `json:"recurrent"`
	Verify    bool   `json:"verify"`
}

// PaymeConfig configures the Subscribe API client.
type PaymeConfig struct {
	BaseURL     string
	MerchantID  string
	MerchantKey string
	Timeout     time.Duration
}

// PaymeClient talks to the Payme Subscribe API over JSON-RPC. It never retries.
type PaymeClient struct {
	baseURL    string
	auth       string
	httpClient *http.Client
	metrics    *metrics.Metrics
}

var _ PaymentGateway = (*PaymeClient)(nil)

func NewPaymeClient(cfg PaymeConfig, m *metrics.Metrics) *PaymeClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PaymeClient{
		baseURL:    cfg.BaseURL,
		auth:       cfg.MerchantID + ":" + cfg.MerchantKey,
		httpClient: &http.Client{Timeout: timeout},
		metrics:    m,
	}
}

type rpcRequest struct {
	ID     int    `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params"`
}

type rpcError struct {
	Code    int             `json:"code"`
	Message json.RawMessage `json:"message"`
}

// Text flattens the error message, which Payme sends either as a string or
// as a per-locale object.
func (e *rpcError) Text() string {
	if e == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(e.Message, &s); err == nil {
		return fmt.Sprintf("code %d: %s", e.Code, s)
	}
	var m map[string]string
	if err := json.Unmarshal(e.Message, &m); err == nil {
		for _, l := range []string{"en", "ru", "uz"} {
			if m[l] != "" {
				return fmt.Sprintf("code %d: %s", e.Code, m[l])
			}
		}
	}
	return fmt.Sprintf("code %d", e.Code)
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// call performs one JSON-RPC request. Transport failures and non-2xx
// statuses are reported as ErrGatewayUnavailable.
func (p *PaymeClient) call(ctx context.Context, method string, params any) (*rpcResponse, error) {
	body, err := json.Marshal(rpcRequest{ID: rpcRequestID, Method: method, Params: params})
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Auth", p.auth)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, &GatewayError{Method: method, Kind: ErrGatewayUnavailable, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &GatewayError{Method: method, Kind: ErrGatewayUnavailable, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &GatewayError{
			Method:  method,
			Kind:    ErrGatewayUnavailable,
			Message: fmt.Sprintf("status %d, body: %s", resp.StatusCode, truncate(string(respBody), 512)),
		}
	}

	var out rpcResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, &GatewayError{Method: method, Kind: ErrInvalidGatewayResponse, Err: err}
	}
	return &out, nil
}

// decodeResult unmarshals the result into dst. A missing result is not an
// error here; callers check the fields they need.
func decodeResult(method string, resp *rpcResponse, dst any) error {
	if len(resp.Result) == 0 || string(resp.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(resp.Result, dst); err != nil {
		return &GatewayError{Method: method, Kind: ErrInvalidGatewayResponse, Message: resp.Error.Text(), Err: err}
	}
	return nil
}

func (p *PaymeClient) observe(method string, start time.Time, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrGatewayUnavailable):
		outcome = "unavailable"
	case errors.Is(err, ErrVerificationRejected):
		outcome = "rejected"
	default:
		outcome = "invalid_response"
	}
	p.metrics.ObserveGateway(method, outcome, time.Since(start))
	if err != nil {
		log.Printf("[Payme] %s failed: %v", method, err)
	}
}

// CreateCard tokenizes a card number. expire is MMYY.
func (p *PaymeClient) CreateCard(ctx context.Context, number, expire string) (token string, err error) {
	defer func(start time.Time) { p.observe(methodCardsCreate, start, err) }(time.Now())

	resp, err := p.call(ctx, methodCardsCreate, map[string]any{
		"card": map[string]string{"number": number, "expire": expire},
		"save": true,
	})
	if err != nil {
		return "", err
	}

	var result struct {
		Card *VerifiedCard `json:"card"`
	}
	if err := decodeResult(methodCardsCreate, resp, &result); err != nil {
		return "", err
	}
	if result.Card == nil || result.Card.Token == "" {
		return "", &GatewayError{Method: methodCardsCreate, Kind: ErrInvalidGatewayResponse, Message: resp.Error.Text()}
	}
	return result.Card.Token, nil
}

// RequestVerificationCode asks Payme to send an SMS code to the card holder.
func (p *PaymeClient) RequestVerificationCode(ctx context.Context, token string) (challenge *VerificationChallenge, err error) {
	defer func(start time.Time) { p.observe(methodCardsGetVerifyCode, start, err) }(time.Now())

	resp, err := p.call(ctx, methodCardsGetVerifyCode, map[string]string{"token": token})
	if err != nil {
		return nil, err
	}

	var result *VerificationChallenge
	if err := decodeResult(methodCardsGetVerifyCode, resp, &result); err != nil {
		return nil, err
	}
	if result == nil {
		return nil, &GatewayError{Method: methodCardsGetVerifyCode, Kind: ErrInvalidGatewayResponse, Message: resp.Error.Text()}
	}
	return result, nil
}

// VerifyCard submits the SMS code. A response without a card means the code
// was rejected.
func (p *PaymeClient) VerifyCard(ctx context.Context, token, code string) (card *VerifiedCard, err error) {
	defer func(start time.Time) { p.observe(methodCardsVerify, start, err) }(time.Now())

	resp, err := p.call(ctx, methodCardsVerify, map[string]string{"token": token, "code": code})
	if err != nil {
		return nil, err
	}

	var result struct {
		Card *VerifiedCard `json:"card"`
	}
	if err := decodeResult(methodCardsVerify, resp, &result); err != nil {
		return nil, err
	}
	if result.Card == nil {
		return nil, &GatewayError{Method: methodCardsVerify, Kind: ErrVerificationRejected, Message: resp.Error.Text()}
	}
	if result.Card.Token == "" {
		result.Card.Token = token
	}
	return result.Card, nil
}

// CreateReceipt opens a receipt for amount minor units tied to orderID.
func (p *PaymeClient) CreateReceipt(ctx context.Context, amount int64, orderID string, items []ReceiptItem) (receiptID string, err error) {
	defer func(start time.Time) { p.observe(methodReceiptsCreate, start, err) }(time.Now())

	resp, err := p.call(ctx, methodReceiptsCreate, map[string]any{
		"amount":  amount,
		"account": map[string]string{"order_id": orderID},
		"detail": map[string]any{
			"receipt_type": 0,
			"items":        items,
		},
	})
	if err != nil {
		return "", err
	}

	var result struct {
		Receipt *struct {
			ID string `json:"_id"`
		} `json:"receipt"`
	}
	if err := decodeResult(methodReceiptsCreate, resp, &result); err != nil {
		return "", err
	}
	if result.Receipt == nil || result.Receipt.ID == "" {
		return "", &GatewayError{Method: methodReceiptsCreate, Kind: ErrInvalidGatewayResponse, Message: resp.Error.Text()}
	}
	return result.Receipt.ID, nil
}

// PayReceipt charges the receipt to the tokenized card and returns its state.
func (p *PaymeClient) PayReceipt(ctx context.Context, receiptID, token string) (status models.PaymentStatus, err error) {
	defer func(start time.Time) { p.observe(methodReceiptsPay, start, err) }(time.Now())

	resp, err := p.call(ctx, methodReceiptsPay, map[string]string{"id": receiptID, "token": token})
	if err != nil {
		return 0, err
	}

	var result struct {
		Receipt *struct {
			State *int `json:"state"`
		} `json:"receipt"`
	}
	if err := decodeResult(methodReceiptsPay, resp, &result); err != nil {
		return 0, err
	}
	if result.Receipt == nil || result.Receipt.State == nil {
		return 0, &GatewayError{Method: methodReceiptsPay, Kind: ErrInvalidGatewayResponse, Message: resp.Error.Text()}
	}
	status = models.PaymentStatus(*result.Receipt.State)
	if !status.Valid() {
		log.Printf("[Payme] receipt %s returned unknown state %d", receiptID, *result.Receipt.State)
		return 0, &GatewayError{Method: methodReceiptsPay, Kind: ErrInvalidGatewayResponse, Message: fmt.Sprintf("unknown receipt state %d", *result.Receipt.State)}
	}
	return status, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
