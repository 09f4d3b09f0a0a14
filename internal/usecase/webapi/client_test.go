package webapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/director74/minicommerce/internal/entity"
)

func TestInventoryClientReserve(t *testing.T) {
	productID := uuid.New()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/inventory/reserve", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"reservation_id":"res-1","reservations":[{"product_id":"` + productID.String() + `","quantity":2,"status":"reserved"}]}`))
	}))
	defer server.Close()

	client := NewInventoryClient(server.URL, time.Second)
	reservationID, reservations, err := client.Reserve(context.Background(), uuid.New(), []entity.OrderItemData{
		{ProductID: productID, Quantity: 2, Price: 10.00},
	})

	require.NoError(t, err)
	assert.Equal(t, "res-1", reservationID)
	require.Len(t, reservations, 1)
	assert.Equal(t, productID, reservations[0].ProductID)
	assert.Equal(t, "reserved", reservations[0].Status)
}

func TestInventoryClientReserveRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"code":"INSUFFICIENT_STOCK","message":"недостаточно товара на складе"}`))
	}))
	defer server.Close()

	client := NewInventoryClient(server.URL, time.Second)
	_, _, err := client.Reserve(context.Background(), uuid.New(), nil)

	var rejection *RejectionError
	require.True(t, errors.As(err, &rejection))
	assert.Equal(t, "INSUFFICIENT_STOCK", rejection.Code)
	assert.Equal(t, "недостаточно товара на складе", rejection.Message)
	assert.Equal(t, http.StatusConflict, rejection.StatusCode)
}

func TestPaymentClientProcess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/payments/process", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"payment_id":"pay-1","status":"processed","amount":25.00}`))
	}))
	defer server.Close()

	client := NewPaymentClient(server.URL, time.Second)
	paymentID, err := client.Process(context.Background(), uuid.New(), uuid.New(), 25.00, "credit_card")

	require.NoError(t, err)
	assert.Equal(t, "pay-1", paymentID)
}

func TestPaymentClientRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"code":"card_declined","message":"карта отклонена"}`))
	}))
	defer server.Close()

	client := NewPaymentClient(server.URL, time.Second)
	_, err := client.Process(context.Background(), uuid.New(), uuid.New(), 25.00, "credit_card")

	var rejection *RejectionError
	require.True(t, errors.As(err, &rejection))
	assert.Equal(t, "card_declined", rejection.Code)
}

func TestPaymentClientServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewPaymentClient(server.URL, time.Second)
	_, err := client.Process(context.Background(), uuid.New(), uuid.New(), 25.00, "credit_card")

	// Ошибки 5xx не являются бизнес-отказом
	require.Error(t, err)
	var rejection *RejectionError
	assert.False(t, errors.As(err, &rejection))
}

func TestNotificationClientNotify(t *testing.T) {
	var received bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received = true
		assert.Equal(t, "/api/v1/notifications", r.URL.Path)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewNotificationClient(server.URL, time.Second)
	err := client.Notify(context.Background(), uuid.New(), uuid.New(), "order_completed", "Заказ выполнен")

	require.NoError(t, err)
	assert.True(t, received)
}

func TestClientRespectsContextTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewPaymentClient(server.URL, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Process(ctx, uuid.New(), uuid.New(), 25.00, "credit_card")
	require.Error(t, err)
}
