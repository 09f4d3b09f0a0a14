package webapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/director74/minicommerce/internal/entity"
)

const inventoryServiceName = "inventory"

// InventoryClient представляет HTTP клиент для работы с сервисом склада
type InventoryClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewInventoryClient(baseURL string, timeout time.Duration) *InventoryClient {
	return &InventoryClient{
		baseURL:    baseURL,
		httpClient: newHTTPClient(timeout),
	}
}

type reserveItemRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

type reserveResponse struct {
	ReservationID string                   `json:"reservation_id"`
	Reservations  []entity.ReservationData `json:"reservations"`
}

// Reserve резервирует товары для заказа. Возвращает идентификатор резерва
// и перечень зарезервированных позиций.
func (c *InventoryClient) Reserve(ctx context.Context, orderID uuid.UUID, items []entity.OrderItemData) (string, []entity.ReservationData, error) {
	url := fmt.Sprintf("%s/api/v1/inventory/reserve", c.baseURL)

	reqItems := make([]reserveItemRequest, 0, len(items))
	for _, item := range items {
		reqItems = append(reqItems, reserveItemRequest{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	reqBody := map[string]interface{}{
		"order_id": orderID,
		"items":    reqItems,
	}

	var resp reserveResponse
	if err := postJSON(ctx, c.httpClient, inventoryServiceName, url, reqBody, &resp); err != nil {
		return "", nil, err
	}

	return resp.ReservationID, resp.Reservations, nil
}

// Confirm подтверждает резерв после успешной оплаты
func (c *InventoryClient) Confirm(ctx context.Context, orderID uuid.UUID) error {
	url := fmt.Sprintf("%s/api/v1/inventory/confirm", c.baseURL)

	reqBody := map[string]interface{}{
		"order_id": orderID,
	}

	return postJSON(ctx, c.httpClient, inventoryServiceName, url, reqBody, nil)
}

// Release снимает резерв при компенсации саги
func (c *InventoryClient) Release(ctx context.Context, orderID uuid.UUID) error {
	url := fmt.Sprintf("%s/api/v1/inventory/release", c.baseURL)

	reqBody := map[string]interface{}{
		"order_id": orderID,
	}

	return postJSON(ctx, c.httpClient, inventoryServiceName, url, reqBody, nil)
}
