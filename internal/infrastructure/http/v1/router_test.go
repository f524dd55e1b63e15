package v1

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/internal/core/tx"
	"atelier/internal/infrastructure/http/v1/handlers"
	"atelier/internal/infrastructure/storage/memory"
	"atelier/pkg/logger"
)

type apiClient struct {
	t      *testing.T
	router *gin.Engine
}

func newTestAPI(t *testing.T) *apiClient {
	t.Helper()

	services, err := NewServices(Repositories{
		Customers:           memory.NewCustomerRepo(),
		Employees:           memory.NewEmployeeRepo(),
		Measurements:        memory.NewMeasurementRepo(),
		Styles:              memory.NewStyleRepo(),
		Jobs:                memory.NewJobRepo(),
		ItemTypes:           memory.NewItemTypeRepo(),
		Suppliers:           memory.NewSupplierRepo(),
		Users:               memory.NewUserRepo(),
		Notifications:       memory.NewNotificationRepo(),
		FinanceTransactions: memory.NewFinanceRepo(),
		Materials:           memory.NewMaterialRepo(),
		Orders:              memory.NewOrderRepo(),
		PurchaseOrders:      memory.NewPurchaseOrderRepo(),
	}, Dependencies{
		TxManager: tx.Direct{},
		Journal:   memory.NewAuditRecorder(),
		Numerator: memory.NewNumerator(),
	})
	require.NoError(t, err)

	router := NewRouter(RouterConfig{
		Services: services,
		Health:   handlers.NewHealthHandler("memory", nil),
		Logger:   logger.NewNop(),
		Mode:     gin.TestMode,
	})
	return &apiClient{t: t, router: router}
}

func (a *apiClient) do(method, path string, body any) (int, map[string]any) {
	a.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	out := map[string]any{}
	if w.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w.Code, out
}

func (a *apiClient) create(path string, body any) string {
	a.t.Helper()
	code, out := a.do(http.MethodPost, path, body)
	require.Equal(a.t, http.StatusCreated, code, out)
	return out["id"].(string)
}

func (a *apiClient) materialQuantity(materialID string) float64 {
	a.t.Helper()
	code, out := a.do(http.MethodGet, "/api/v1/materials/"+materialID, nil)
	require.Equal(a.t, http.StatusOK, code, out)
	return out["quantity"].(float64)
}

func TestRouter_Health(t *testing.T) {
	api := newTestAPI(t)

	code, out := api.do(http.MethodGet, "/api/v1/health/live", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", out["status"])

	code, out = api.do(http.MethodGet, "/api/v1/health/ready", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]any{"memory": "healthy"}, out["checks"])
}

func TestRouter_OrderConsumesAndReleasesStock(t *testing.T) {
	api := newTestAPI(t)

	customerID := api.create("/api/v1/customers", map[string]any{"name": "Ada"})
	materialID := api.create("/api/v1/materials", map[string]any{"name": "Linen", "unit": "m", "quantity": 10})

	code, out := api.do(http.MethodPost, "/api/v1/orders", map[string]any{
		"customerId":    customerID,
		"materialsUsed": []map[string]any{{"material": materialID, "quantity": 4}},
	})
	require.Equal(t, http.StatusCreated, code, out)
	orderID := out["id"].(string)
	assert.NotEmpty(t, out["number"])
	assert.Equal(t, 6.0, api.materialQuantity(materialID))

	code, out = api.do(http.MethodGet, "/api/v1/customers/"+customerID+"/orders", nil)
	require.Equal(t, http.StatusOK, code, out)
	assert.Equal(t, 1.0, out["totalCount"])

	code, out = api.do(http.MethodPost, "/api/v1/orders", map[string]any{
		"customerId":    customerID,
		"materialsUsed": []map[string]any{{"material": materialID, "quantity": 7}},
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "INSUFFICIENT_STOCK", out["code"])
	assert.Equal(t, 6.0, api.materialQuantity(materialID))

	code, out = api.do(http.MethodDelete, "/api/v1/orders/"+orderID, nil)
	require.Equal(t, http.StatusOK, code, out)
	assert.Equal(t, true, out["deleted"])
	assert.Equal(t, 10.0, api.materialQuantity(materialID))

	code, out = api.do(http.MethodGet, "/api/v1/trash", nil)
	require.Equal(t, http.StatusOK, code)
	items := out["items"].([]any)
	require.Len(t, items, 1)
	entry := items[0].(map[string]any)
	assert.Equal(t, "order", entry["entityType"])
	assert.Equal(t, orderID, entry["id"])

	code, _ = api.do(http.MethodPut, "/api/v1/trash/order/"+orderID+"/restore", nil)
	require.Equal(t, http.StatusNoContent, code)
	assert.Equal(t, 6.0, api.materialQuantity(materialID))

	code, out = api.do(http.MethodGet, "/api/v1/trash", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, out["items"])
}

func TestRouter_PurchaseOrderReceive(t *testing.T) {
	api := newTestAPI(t)

	supplierID := api.create("/api/v1/suppliers", map[string]any{"name": "Mill"})
	materialID := api.create("/api/v1/materials", map[string]any{"name": "Wool", "unit": "m", "quantity": 2})

	code, out := api.do(http.MethodPost, "/api/v1/purchase-orders", map[string]any{
		"supplierId": supplierID,
		"items":      []map[string]any{{"material": materialID, "quantity": 5, "unitCost": "3.5"}},
	})
	require.Equal(t, http.StatusCreated, code, out)
	poID := out["id"].(string)
	assert.Equal(t, "draft", out["status"])
	itemID := out["items"].([]any)[0].(map[string]any)["id"].(string)

	code, out = api.do(http.MethodPost, "/api/v1/purchase-orders/"+poID+"/receive", map[string]any{
		"items": []map[string]any{{"itemId": itemID, "receivedQuantity": 5}},
	})
	assert.Equal(t, http.StatusConflict, code, "draft orders cannot be received")
	assert.Equal(t, "INVALID_TRANSITION", out["code"])

	code, out = api.do(http.MethodPost, "/api/v1/purchase-orders/"+poID+"/order", nil)
	require.Equal(t, http.StatusOK, code, out)
	assert.Equal(t, "ordered", out["status"])

	code, out = api.do(http.MethodPost, "/api/v1/purchase-orders/"+poID+"/receive", map[string]any{
		"items": []map[string]any{{"itemId": itemID, "receivedQuantity": 6}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "OVER_RECEIPT", out["code"])
	assert.Equal(t, 2.0, api.materialQuantity(materialID))

	code, out = api.do(http.MethodPost, "/api/v1/purchase-orders/"+poID+"/receive", map[string]any{
		"items": []map[string]any{{"itemId": itemID, "receivedQuantity": 5}},
	})
	require.Equal(t, http.StatusOK, code, out)
	assert.Equal(t, "received", out["purchaseOrder"].(map[string]any)["status"])
	balances := out["materials"].([]any)
	require.Len(t, balances, 1)
	assert.Equal(t, 7.0, balances[0].(map[string]any)["quantity"])
	assert.Equal(t, 7.0, api.materialQuantity(materialID))
}

func TestRouter_MaterialStocktakeAndLowStock(t *testing.T) {
	api := newTestAPI(t)

	materialID := api.create("/api/v1/materials", map[string]any{
		"name": "Thread", "unit": "spool", "quantity": 20, "lowStockThreshold": 5,
	})

	code, out := api.do(http.MethodGet, "/api/v1/materials/low-stock", nil)
	require.Equal(t, http.StatusOK, code, out)
	assert.Empty(t, out["items"])

	code, out = api.do(http.MethodPost, "/api/v1/materials/"+materialID+"/stocktake", map[string]any{"quantity": 3})
	require.Equal(t, http.StatusOK, code, out)
	assert.Equal(t, 3.0, out["quantity"])

	code, out = api.do(http.MethodGet, "/api/v1/materials/low-stock", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, out["items"], 1)

	code, out = api.do(http.MethodPost, "/api/v1/materials/"+materialID+"/stocktake", map[string]any{"quantity": -1})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION_ERROR", out["code"])
}

func TestRouter_CatalogLifecycle(t *testing.T) {
	api := newTestAPI(t)

	styleID := api.create("/api/v1/styles", map[string]any{"name": "Kaftan"})

	code, out := api.do(http.MethodPut, "/api/v1/styles/"+styleID+"/restore", nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "INVALID_STATE", out["code"])

	code, out = api.do(http.MethodDelete, "/api/v1/styles/"+styleID+"/force", nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "INVALID_STATE", out["code"])

	code, _ = api.do(http.MethodDelete, "/api/v1/styles/"+styleID, nil)
	require.Equal(t, http.StatusOK, code)

	code, out = api.do(http.MethodGet, "/api/v1/styles", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, out["items"])

	code, out = api.do(http.MethodGet, "/api/v1/styles?deleted=true", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, out["items"], 1)

	code, _ = api.do(http.MethodDelete, "/api/v1/trash/style/"+styleID, nil)
	require.Equal(t, http.StatusNoContent, code)

	code, out = api.do(http.MethodGet, "/api/v1/styles/"+styleID, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "NOT_FOUND", out["code"])
}

func TestRouter_TrashRejectsUnknownType(t *testing.T) {
	api := newTestAPI(t)

	code, out := api.do(http.MethodPut, "/api/v1/trash/invoice/"+"0190a5c4-0000-7000-8000-000000000000"+"/restore", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION_ERROR", out["code"])
}

func TestRouter_EmptyTrash(t *testing.T) {
	api := newTestAPI(t)

	for _, name := range []string{"Ada", "Grace"} {
		customerID := api.create("/api/v1/customers", map[string]any{"name": name})
		code, _ := api.do(http.MethodDelete, "/api/v1/customers/"+customerID, nil)
		require.Equal(t, http.StatusOK, code)
	}

	code, out := api.do(http.MethodDelete, "/api/v1/trash", nil)
	require.Equal(t, http.StatusOK, code, out)
	assert.Equal(t, 2.0, out["purged"])
	assert.Equal(t, 0.0, out["failed"])
}

func TestRouter_OrderUpdateReplacesLines(t *testing.T) {
	api := newTestAPI(t)

	customerID := api.create("/api/v1/customers", map[string]any{"name": "Ada"})
	linen := api.create("/api/v1/materials", map[string]any{"name": "Linen", "unit": "m", "quantity": 10})
	silk := api.create("/api/v1/materials", map[string]any{"name": "Silk", "unit": "m", "quantity": 10})
	orderID := api.create("/api/v1/orders", map[string]any{
		"customerId":    customerID,
		"materialsUsed": []map[string]any{{"material": linen, "quantity": 4}},
	})

	code, out := api.do(http.MethodPut, "/api/v1/orders/"+orderID, map[string]any{
		"materialsUsed": []map[string]any{{"material": silk}},
	})
	assert.Equal(t, http.StatusBadRequest, code, "a line without quantity must not inherit the stored one")
	assert.Equal(t, "VALIDATION_ERROR", out["code"])
	assert.Equal(t, 6.0, api.materialQuantity(linen))
	assert.Equal(t, 10.0, api.materialQuantity(silk))

	code, out = api.do(http.MethodPut, "/api/v1/orders/"+orderID, map[string]any{"notes": "hem by friday"})
	require.Equal(t, http.StatusOK, code, out)
	lines := out["materialsUsed"].([]any)
	require.Len(t, lines, 1)
	assert.Equal(t, 4.0, lines[0].(map[string]any)["quantity"])
	assert.Equal(t, 6.0, api.materialQuantity(linen))

	code, out = api.do(http.MethodPut, "/api/v1/orders/"+orderID, map[string]any{
		"materialsUsed": []map[string]any{{"material": silk, "quantity": 3}},
	})
	require.Equal(t, http.StatusOK, code, out)
	assert.Equal(t, 10.0, api.materialQuantity(linen))
	assert.Equal(t, 7.0, api.materialQuantity(silk))
}

func TestRouter_OrderWithoutLinesEncodesEmptyList(t *testing.T) {
	api := newTestAPI(t)

	customerID := api.create("/api/v1/customers", map[string]any{"name": "Ada"})
	orderID := api.create("/api/v1/orders", map[string]any{"customerId": customerID})

	code, out := api.do(http.MethodGet, "/api/v1/orders/"+orderID, nil)
	require.Equal(t, http.StatusOK, code, out)
	assert.Equal(t, []any{}, out["materialsUsed"])
}
