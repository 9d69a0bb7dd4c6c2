package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/leduongnhattt/Food-Delivery-App-sub002/internal/config"
	"github.com/leduongnhattt/Food-Delivery-App-sub002/pkg/logger"
)

// ErrPaymentFailed is returned for any provider-side charge failure. The
// handler surfaces it as an upstream error with a generic message; the
// provider detail goes to the log only.
var ErrPaymentFailed = errors.New("payment failed")

type ChargeRequest struct {
	OrderID  uint    `json:"order_id"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

type ChargeResult struct {
	PaymentID   string `json:"payment_id"`
	RedirectURL string `json:"redirect_url,omitempty"`
}

// PaymentService talks to the external payment provider.
type PaymentService struct {
	cfg    *config.PaymentConfig
	client *http.Client
	retry  RetryPolicy
}

func NewPaymentService(cfg *config.PaymentConfig) *PaymentService {
	return &PaymentService{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
		retry:  ProviderRetryPolicy(),
	}
}

func (s *PaymentService) IsEnabled() bool {
	return s.cfg.Enabled
}

// CreateCharge creates a charge for an order. Retries timeouts; any other
// provider failure maps to ErrPaymentFailed.
func (s *PaymentService) CreateCharge(ctx context.Context, chargeReq *ChargeRequest) (*ChargeResult, error) {
	if !s.cfg.Enabled {
		return nil, errors.New("card payment is disabled")
	}

	payload, err := json.Marshal(chargeReq)
	if err != nil {
		return nil, err
	}

	var result ChargeResult
	err = s.retry.Do(ctx, "payment charge", func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/v1/charges", bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)

		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
			return fmt.Errorf("payment provider returned %d", resp.StatusCode)
		}
		return json.NewDecoder(resp.Body).Decode(&result)
	})
	if err != nil {
		logger.Errorf("[Payment] Charge for order %d failed: %v", chargeReq.OrderID, err)
		return nil, ErrPaymentFailed
	}

	if result.PaymentID == "" {
		logger.Errorf("[Payment] Charge for order %d returned no payment id", chargeReq.OrderID)
		return nil, ErrPaymentFailed
	}

	return &result, nil
}
