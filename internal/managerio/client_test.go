package managerio

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, url string, pageSize int) *Client {
	t.Helper()
	client, err := NewClient(url, "test-key", pageSize, 5)
	require.NoError(t, err)
	return client
}

func makeItems(start, count int) []Record {
	items := make([]Record, count)
	for i := 0; i < count; i++ {
		items[i] = Record{
			"key":      fmt.Sprintf("item-%d", start+i),
			"ItemCode": fmt.Sprintf("RM-%04d", start+i),
		}
	}
	return items
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient("http://example.com", "  ", 100, 30)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "MANAGER_API_KEY")
}

func TestFetchAllPagination(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, "test-key", r.Header.Get("X-API-KEY"))

		skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
		var page []Record
		switch skip {
		case 0, 100:
			page = makeItems(skip, 100)
		case 200:
			page = makeItems(skip, 37)
		default:
			page = nil
		}
		json.NewEncoder(w).Encode(page)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, 100)
	records, err := client.FetchAll(context.Background(), "inventory-items")
	require.NoError(t, err)

	// The short third page ends pagination without a fourth request.
	assert.Len(t, records, 237)
	assert.Equal(t, 3, requests)
}

func TestFetchAllStopsOnEmptyPage(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
		if skip == 0 {
			json.NewEncoder(w).Encode(makeItems(0, 2))
			return
		}
		json.NewEncoder(w).Encode([]Record{})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, 2)
	records, err := client.FetchAll(context.Background(), "inventory-items")
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, 2, requests)
}

func TestAuthenticationFailureIsFatal(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, 100)
	_, err := client.FetchAll(context.Background(), "inventory-items")
	require.Error(t, err)

	var authErr *AuthenticationError
	assert.ErrorAs(t, err, &authErr)
	assert.Contains(t, err.Error(), "MANAGER_API_KEY")
	assert.Equal(t, 1, requests, "401 must not be retried")
}

func TestRetriesServerErrors(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(makeItems(0, 1))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, 100)
	records, err := client.FetchPage(context.Background(), "inventory-items", 100, 0)
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 2, requests)
}

func TestServerErrorsExhaustRetries(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, 100)
	_, err := client.FetchPage(context.Background(), "inventory-items", 100, 0)
	require.Error(t, err)

	var transportErr *TransportError
	assert.ErrorAs(t, err, &transportErr)
	assert.Equal(t, http.StatusBadGateway, transportErr.StatusCode)
	assert.Equal(t, maxAttempts, requests)
}

func TestClientErrorIsNotRetried(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, 100)
	_, err := client.FetchPage(context.Background(), "inventory-items", 100, 0)
	require.Error(t, err)
	assert.Equal(t, 1, requests)
}

func TestSubmitProductionOrderExtractsKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		json.NewEncoder(w).Encode(map[string]string{"key": "ext-123"})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, 100)
	key, err := client.SubmitProductionOrder(context.Background(), ProductionOrderForm{
		Date:                  "2026-08-29T00:00:00",
		FinishedInventoryItem: "fg-uuid",
		Qty:                   10,
	})
	require.NoError(t, err)
	assert.Equal(t, "ext-123", key)
}

func TestPostFormExtractsNestedKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]string{"key": "nested-456"},
		})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, 100)
	key, err := client.CreateCustomer(context.Background(), CustomerForm{Name: "Cafe Dhaka"})
	require.NoError(t, err)
	assert.Equal(t, "nested-456", key)
}

func TestCreateSalesOrderValidation(t *testing.T) {
	client := newTestClient(t, "http://example.invalid", 100)

	_, err := client.CreateSalesOrder(context.Background(), SalesOrderForm{})
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "Customer", valErr.Field)

	_, err = client.CreateSalesOrder(context.Background(), SalesOrderForm{Customer: "cust-1"})
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "Lines", valErr.Field)
}

func TestExtractRecordsBareArray(t *testing.T) {
	body := []byte(`[{"key": "a"}, {"key": "b"}]`)
	records, err := extractRecords(body, "inventory-items")
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestExtractRecordsResourceField(t *testing.T) {
	body := []byte(`{"inventoryItems": [{"key": "a"}], "total": 1}`)
	records, err := extractRecords(body, "inventory-items")
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, "a", records[0]["key"])
}

func TestExtractRecordsFirstListField(t *testing.T) {
	body := []byte(`{"total": 2, "results": [{"key": "a"}, {"key": "b"}]}`)
	records, err := extractRecords(body, "inventory-items")
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestExtractRecordsFirstListFieldInDocumentOrder(t *testing.T) {
	body := []byte(`{"results": [{"key": "a"}], "archived": [{"key": "x"}, {"key": "y"}]}`)
	records, err := extractRecords(body, "inventory-items")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "a", records[0]["key"])
}

func TestExtractRecordsShapeError(t *testing.T) {
	body := []byte(`{"total": 5, "message": "no lists here"}`)
	_, err := extractRecords(body, "inventory-items")

	var shapeErr *ShapeError
	assert.ErrorAs(t, err, &shapeErr)
}

func TestExtractRecordsEmptyBody(t *testing.T) {
	records, err := extractRecords([]byte("  "), "inventory-items")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestResourceField(t *testing.T) {
	assert.Equal(t, "inventoryItems", resourceField("inventory-items"))
	assert.Equal(t, "customers", resourceField("customers"))
	assert.Equal(t, "salesOrders", resourceField("sales-orders"))
}
