package webapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const paymentServiceName = "payment"

// PaymentClient представляет HTTP клиент для работы с платёжным сервисом
type PaymentClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewPaymentClient(baseURL string, timeout time.Duration) *PaymentClient {
	return &PaymentClient{
		baseURL:    baseURL,
		httpClient: newHTTPClient(timeout),
	}
}

type processPaymentResponse struct {
	PaymentID string  `json:"payment_id"`
	Status    string  `json:"status"`
	Amount    float64 `json:"amount"`
}

// Process списывает средства за заказ. Возвращает идентификатор платежа.
func (c *PaymentClient) Process(ctx context.Context, orderID, userID uuid.UUID, amount float64, paymentMethod string) (string, error) {
	url := fmt.Sprintf("%s/api/v1/payments/process", c.baseURL)

	reqBody := map[string]interface{}{
		"order_id":       orderID,
		"user_id":        userID,
		"amount":         amount,
		"payment_method": paymentMethod,
	}

	var resp processPaymentResponse
	if err := postJSON(ctx, c.httpClient, paymentServiceName, url, reqBody, &resp); err != nil {
		return "", err
	}

	return resp.PaymentID, nil
}
