package webapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const notificationServiceName = "notification"

// NotificationClient представляет HTTP клиент для работы с сервисом уведомлений
type NotificationClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewNotificationClient(baseURL string, timeout time.Duration) *NotificationClient {
	return &NotificationClient{
		baseURL:    baseURL,
		httpClient: newHTTPClient(timeout),
	}
}

// Notify отправляет пользователю уведомление о смене статуса заказа.
// Ошибки уведомлений не влияют на исход саги.
func (c *NotificationClient) Notify(ctx context.Context, userID, orderID uuid.UUID, notificationType, message string) error {
	url := fmt.Sprintf("%s/api/v1/notifications", c.baseURL)

	reqBody := map[string]interface{}{
		"user_id":  userID,
		"order_id": orderID,
		"type":     notificationType,
		"message":  message,
	}

	return postJSON(ctx, c.httpClient, notificationServiceName, url, reqBody, nil)
}
