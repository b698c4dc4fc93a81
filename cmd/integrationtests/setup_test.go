package integrationtests

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	auction "campus-auction/internal/auctionService"
	model "campus-auction/internal/models"
	notification "campus-auction/internal/notificationService"
	"campus-auction/internal/repository"
	"campus-auction/internal/server"

	"github.com/gin-gonic/gin"
)

// TestEnv is a full API stack over the in-memory store: router, services and
// the store itself for seeding.
type TestEnv struct {
	Router     *gin.Engine
	Store      *repository.MemoryStore
	AuctionSvc *auction.Service
}

// SetupTestEnv wires the whole application over an in-memory store, with
// live push disabled.
func SetupTestEnv(products ...model.Product) *TestEnv {
	gin.SetMode(gin.TestMode)

	store := repository.NewMemoryStore()
	for _, p := range products {
		store.AddProduct(p)
	}

	notificationSvc := notification.NewService(store, nil)
	auctionSvc := auction.NewService(store, store, store, notificationSvc)

	return &TestEnv{
		Router:     server.SetupRouter(auctionSvc, notificationSvc),
		Store:      store,
		AuctionSvc: auctionSvc,
	}
}

// ExecuteRequest executes an HTTP request as the given user and parses the
// response envelope.
func (e *TestEnv) ExecuteRequest(t *testing.T, method, url, userID string, body any) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	var reqBody []byte
	var err error
	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	case string:
		reqBody = []byte(v)
	default:
		reqBody, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to parse response body %q: %v", w.Body.String(), err)
		}
	}
	return resp, w
}

// Data extracts the envelope's data field as an object.
func Data(t *testing.T, resp map[string]any) map[string]any {
	t.Helper()
	data, ok := resp["data"].(map[string]any)
	if !ok {
		t.Fatalf("response has no data object: %v", resp)
	}
	return data
}
