// Package webapi содержит HTTP клиенты для сервисов, участвующих в саге заказа.
package webapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RejectionError означает, что сервис отклонил запрос по бизнес-причине
// (4xx ответ). Такие ошибки не ретраятся.
type RejectionError struct {
	Service    string
	StatusCode int
	Code       string
	Message    string
}

func (e *RejectionError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("сервис %s отклонил запрос: %s (%s)", e.Service, e.Message, e.Code)
	}
	return fmt.Sprintf("сервис %s отклонил запрос: %s", e.Service, e.Message)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// postJSON выполняет POST запрос с JSON телом и декодирует успешный ответ в out.
// Ответы 4xx превращаются в RejectionError, остальные неуспешные статусы -
// в обычную ошибку.
func postJSON(ctx context.Context, client *http.Client, service, url string, reqBody, out interface{}) error {
	reqBodyJSON, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("ошибка при маршалинге запроса: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(reqBodyJSON))
	if err != nil {
		return fmt.Errorf("ошибка при создании запроса: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("ошибка при выполнении запроса к сервису %s: %w", service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest && resp.StatusCode < http.StatusInternalServerError {
		var errResp errorResponse
		body, _ := io.ReadAll(resp.Body)
		_ = json.Unmarshal(body, &errResp)

		message := errResp.Message
		if message == "" {
			message = errResp.Error
		}
		if message == "" {
			message = resp.Status
		}

		return &RejectionError{
			Service:    service,
			StatusCode: resp.StatusCode,
			Code:       errResp.Code,
			Message:    message,
		}
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("неуспешный ответ от сервиса %s: %s", service, resp.Status)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("ошибка при декодировании ответа сервиса %s: %w", service, err)
		}
	}

	return nil
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout}
}
