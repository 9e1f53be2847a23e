package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	dispatchapp "github.com/perfumery/sales/internal/application/dispatch"
	"github.com/perfumery/sales/internal/domain/dispatch"
	"github.com/perfumery/sales/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupSiteTestRouter() (*gin.Engine, *MockSiteRepository) {
	gin.SetMode(gin.TestMode)

	mockRepo := new(MockSiteRepository)
	service := dispatchapp.NewSiteService(mockRepo)
	handler := NewSiteHandler(service)

	router := gin.New()
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)

	return router, mockRepo
}

func createTestSite(t *testing.T, class dispatch.SiteClass, maxCapacity int) *dispatch.Site {
	t.Helper()
	site, err := dispatch.NewSite("Belgrade Central", "Bulevar kralja Aleksandra 73", maxCapacity, class)
	if err != nil {
		t.Fatalf("building test site: %v", err)
	}
	return site
}

func TestSiteHandler_Create(t *testing.T) {
	t.Run("should create site at full capacity", func(t *testing.T) {
		router, mockRepo := setupSiteTestRouter()

		mockRepo.On("Save", mock.Anything, mock.AnythingOfType("*dispatch.Site")).
			Return(nil)

		reqBody := map[string]interface{}{
			"name":         "Belgrade Central",
			"location":     "Bulevar kralja Aleksandra 73",
			"max_capacity": 500,
			"class":        "DISTRIBUTION",
		}
		body, _ := json.Marshal(reqBody)

		req, _ := http.NewRequest(http.MethodPost, "/api/v1/sites", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)

		var response map[string]interface{}
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.True(t, response["success"].(bool))

		data := response["data"].(map[string]interface{})
		assert.Equal(t, "DISTRIBUTION", data["class"])
		assert.Equal(t, float64(500), data["max_capacity"])
		assert.Equal(t, float64(500), data["current_capacity"])

		mockRepo.AssertExpectations(t)
	})

	t.Run("should return 400 for unknown site class", func(t *testing.T) {
		router, _ := setupSiteTestRouter()

		reqBody := map[string]interface{}{
			"name":         "Belgrade Central",
			"location":     "Bulevar kralja Aleksandra 73",
			"max_capacity": 500,
			"class":        "DEPOT",
		}
		body, _ := json.Marshal(reqBody)

		req, _ := http.NewRequest(http.MethodPost, "/api/v1/sites", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("should return 400 for missing name", func(t *testing.T) {
		router, _ := setupSiteTestRouter()

		reqBody := map[string]interface{}{
			"location":     "Bulevar kralja Aleksandra 73",
			"max_capacity": 500,
			"class":        "WAREHOUSE",
		}
		body, _ := json.Marshal(reqBody)

		req, _ := http.NewRequest(http.MethodPost, "/api/v1/sites", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSiteHandler_Get(t *testing.T) {
	t.Run("should get site by ID", func(t *testing.T) {
		router, mockRepo := setupSiteTestRouter()

		site := createTestSite(t, dispatch.ClassWarehouse, 200)
		mockRepo.On("FindByID", mock.Anything, site.ID).
			Return(site, nil)

		req, _ := http.NewRequest(http.MethodGet, "/api/v1/sites/"+site.ID.String(), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		data := response["data"].(map[string]interface{})
		assert.Equal(t, "WAREHOUSE", data["class"])
		assert.Equal(t, float64(200), data["current_capacity"])
	})

	t.Run("should return 404 for unknown site", func(t *testing.T) {
		router, mockRepo := setupSiteTestRouter()

		id := uuid.New()
		mockRepo.On("FindByID", mock.Anything, id).
			Return(nil, shared.ErrNotFound)

		req, _ := http.NewRequest(http.MethodGet, "/api/v1/sites/"+id.String(), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("should return 400 for malformed site ID", func(t *testing.T) {
		router, _ := setupSiteTestRouter()

		req, _ := http.NewRequest(http.MethodGet, "/api/v1/sites/not-a-uuid", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSiteHandler_List(t *testing.T) {
	t.Run("should list all sites", func(t *testing.T) {
		router, mockRepo := setupSiteTestRouter()

		sites := []dispatch.Site{
			*createTestSite(t, dispatch.ClassDistribution, 500),
			*createTestSite(t, dispatch.ClassWarehouse, 200),
		}
		mockRepo.On("FindAll", mock.Anything).Return(sites, nil)

		req, _ := http.NewRequest(http.MethodGet, "/api/v1/sites", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		data := response["data"].([]interface{})
		assert.Len(t, data, 2)
	})
}

func TestSiteHandler_AdjustCapacity(t *testing.T) {
	t.Run("should apply a negative delta", func(t *testing.T) {
		router, mockRepo := setupSiteTestRouter()

		site := createTestSite(t, dispatch.ClassWarehouse, 200)
		mockRepo.On("FindByID", mock.Anything, site.ID).
			Return(site, nil)
		mockRepo.On("Save", mock.Anything, site).
			Return(nil)

		body, _ := json.Marshal(map[string]interface{}{"delta": -50})
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/sites/"+site.ID.String()+"/capacity", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		data := response["data"].(map[string]interface{})
		assert.Equal(t, float64(150), data["current_capacity"])

		mockRepo.AssertExpectations(t)
	})

	t.Run("should clamp a restock past the maximum", func(t *testing.T) {
		router, mockRepo := setupSiteTestRouter()

		site := createTestSite(t, dispatch.ClassWarehouse, 200)
		site.CurrentCapacity = 180
		mockRepo.On("FindByID", mock.Anything, site.ID).
			Return(site, nil)
		mockRepo.On("Save", mock.Anything, site).
			Return(nil)

		body, _ := json.Marshal(map[string]interface{}{"delta": 100})
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/sites/"+site.ID.String()+"/capacity", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		_ = json.Unmarshal(w.Body.Bytes(), &response)
		data := response["data"].(map[string]interface{})
		assert.Equal(t, float64(200), data["current_capacity"])
	})

	t.Run("should return 400 for zero delta", func(t *testing.T) {
		router, mockRepo := setupSiteTestRouter()

		site := createTestSite(t, dispatch.ClassWarehouse, 200)
		mockRepo.On("FindByID", mock.Anything, site.ID).
			Return(site, nil)

		body, _ := json.Marshal(map[string]interface{}{"delta": 0})
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/sites/"+site.ID.String()+"/capacity", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

// mockPackagingDispatcher is a mock implementation of dispatchapp.Dispatcher
type mockPackagingDispatcher struct {
	mock.Mock
}

func (m *mockPackagingDispatcher) Dispatch(ctx context.Context, class dispatch.SiteClass, count int) (*dispatch.DispatchResult, error) {
	args := m.Called(ctx, class, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dispatch.DispatchResult), args.Error(1)
}

func setupDispatchTestRouter() (*gin.Engine, *mockPackagingDispatcher) {
	gin.SetMode(gin.TestMode)

	mockRepo := new(MockSiteRepository)
	mockDispatcher := new(mockPackagingDispatcher)
	service := dispatchapp.NewSiteService(mockRepo)
	service.SetDispatcher(mockDispatcher)
	handler := NewSiteHandler(service)

	router := gin.New()
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)

	return router, mockDispatcher
}

func TestSiteHandler_SendPackaging(t *testing.T) {
	t.Run("should dispatch from warehouse for default role", func(t *testing.T) {
		router, mockDispatcher := setupDispatchTestRouter()

		result := &dispatch.DispatchResult{
			SiteID: uuid.New(),
			Packages: []dispatch.Package{
				{ID: uuid.New(), SerialNumber: "PRF-001", Name: "Midnight Oud"},
				{ID: uuid.New(), SerialNumber: "PRF-001", Name: "Midnight Oud"},
				{ID: uuid.New(), SerialNumber: "PRF-001", Name: "Midnight Oud"},
			},
		}
		mockDispatcher.On("Dispatch", mock.Anything, dispatch.ClassWarehouse, 3).
			Return(result, nil)

		body, _ := json.Marshal(map[string]interface{}{"quantity": 3})
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/sites/dispatch", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.True(t, response["success"].(bool))

		data := response["data"].(map[string]interface{})
		assert.Equal(t, "WAREHOUSE", data["site_class"])
		assert.Equal(t, float64(3), data["count"])

		mockDispatcher.AssertExpectations(t)
	})

	t.Run("should route manager role to distribution center", func(t *testing.T) {
		router, mockDispatcher := setupDispatchTestRouter()

		result := &dispatch.DispatchResult{
			SiteID:   uuid.New(),
			Packages: []dispatch.Package{{ID: uuid.New(), SerialNumber: "PRF-001", Name: "Midnight Oud"}},
		}
		mockDispatcher.On("Dispatch", mock.Anything, dispatch.ClassDistribution, 1).
			Return(result, nil)

		body, _ := json.Marshal(map[string]interface{}{"quantity": 1})
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/sites/dispatch", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-User-Role", "MANAGER")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		mockDispatcher.AssertExpectations(t)
	})

	t.Run("should return 409 when capacity is insufficient", func(t *testing.T) {
		router, mockDispatcher := setupDispatchTestRouter()

		mockDispatcher.On("Dispatch", mock.Anything, dispatch.ClassWarehouse, 50).
			Return(nil, shared.ErrInsufficientCapacity)

		body, _ := json.Marshal(map[string]interface{}{"quantity": 50})
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/sites/dispatch", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("should return 400 for non-positive quantity", func(t *testing.T) {
		router, mockDispatcher := setupDispatchTestRouter()

		body, _ := json.Marshal(map[string]interface{}{"quantity": 0})
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/sites/dispatch", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockDispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything, mock.Anything)
	})
}
