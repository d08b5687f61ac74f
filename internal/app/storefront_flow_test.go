package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/vladislavdragonenkov/storefront/internal/analytics"
	"github.com/vladislavdragonenkov/storefront/internal/service/outbox"
)

// StorefrontFlowTestSuite проходит путь покупателя через HTTP API на in-memory хранилище
// и проверяет, что события аналитики доходят до outbox и публикуются воркером.
type StorefrontFlowTestSuite struct {
	suite.Suite
	cfg     Config
	logger  *log.Entry
	deps    *runtimeDependencies
	tracker *analytics.Tracker
	handler http.Handler
}

func (s *StorefrontFlowTestSuite) SetupTest() {
	base := log.New()
	base.SetLevel(log.WarnLevel)
	s.logger = base.WithField("component", "flow-test")

	s.cfg = DefaultConfig()
	deps, err := initRuntimeDependencies(context.Background(), s.cfg, s.logger)
	s.Require().NoError(err)
	s.deps = deps

	s.tracker = analytics.NewTracker(deps.outboxRepo, analytics.WithLogger(s.logger))
	s.handler = newAPIHandler(s.cfg, deps, s.tracker, s.logger)
}

func (s *StorefrontFlowTestSuite) call(method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &decoded), rec.Body.String())
	}
	return rec, decoded
}

func (s *StorefrontFlowTestSuite) newSession() string {
	rec, body := s.call(http.MethodPost, "/api/v1/sessions", nil)
	s.Require().Equal(http.StatusCreated, rec.Code)
	sid, ok := body["session_id"].(string)
	s.Require().True(ok)
	return sid
}

func (s *StorefrontFlowTestSuite) pendingOutbox() int {
	stats, err := s.deps.outboxRepo.Stats()
	s.Require().NoError(err)
	return stats.PendingCount
}

func (s *StorefrontFlowTestSuite) TestShopperJourney() {
	sid := s.newSession()
	base := "/api/v1/sessions/" + sid

	rec, body := s.call(http.MethodPost, base+"/cart/items", map[string]any{"product_id": "carrier-optimax-15", "quantity": 2})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Equal("added", body["outcome"])

	rec, _ = s.call(http.MethodPut, base+"/wishlist/sharp-standard-15", nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	rec, _ = s.call(http.MethodPut, base+"/compare/carrier-inverter-225", nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec, _ = s.call(http.MethodPost, base+"/events", map[string]any{"event": "start_checkout", "page": "/checkout"})
	s.Require().Equal(http.StatusAccepted, rec.Code, rec.Body.String())

	// Новый обработчик поверх тех же хранилищ эквивалентен перезагрузке страницы.
	s.handler = newAPIHandler(s.cfg, s.deps, s.tracker, s.logger)

	rec, body = s.call(http.MethodGet, base+"/cart", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	cartBody, ok := body["cart"].(map[string]any)
	s.Require().True(ok)
	s.EqualValues(2, cartBody["total_items"])

	rec, body = s.call(http.MethodGet, base+"/wishlist", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Len(body["items"], 1)

	rec, body = s.call(http.MethodGet, base+"/compare", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Len(body["items"], 1)

	s.Equal(2, s.tracker.Flush())
	s.Equal(2, s.pendingOutbox())

	worker := outbox.NewWorker(s.deps.outboxRepo, outbox.NewLogPublisher(s.logger), outbox.WithLogger(s.logger))
	worker.ProcessOnce(context.Background())
	s.Equal(0, s.pendingOutbox())
}

func (s *StorefrontFlowTestSuite) TestSessionsAreIsolated() {
	first := s.newSession()
	second := s.newSession()
	s.NotEqual(first, second)

	rec, _ := s.call(http.MethodPost, "/api/v1/sessions/"+first+"/cart/items", map[string]any{"product_id": "carrier-optimax-15"})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec, body := s.call(http.MethodGet, "/api/v1/sessions/"+second+"/cart", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	cartBody := body["cart"].(map[string]any)
	s.EqualValues(0, cartBody["total_items"])
}

func (s *StorefrontFlowTestSuite) TestClearCartIsIdempotent() {
	sid := s.newSession()
	path := "/api/v1/sessions/" + sid + "/cart"

	for i := 0; i < 2; i++ {
		rec, body := s.call(http.MethodDelete, path, nil)
		s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
		cartBody := body["cart"].(map[string]any)
		s.EqualValues(0, cartBody["total_items"])
	}
}

func TestStorefrontFlow(t *testing.T) {
	suite.Run(t, new(StorefrontFlowTestSuite))
}

func TestNewAPIHandler_ServesCatalog(t *testing.T) {
	deps, err := initRuntimeDependencies(context.Background(), DefaultConfig(), log.WithField("test", "api"))
	require.NoError(t, err)

	handler := newAPIHandler(DefaultConfig(), deps, analytics.NewTracker(deps.outboxRepo), log.WithField("test", "api"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products/carrier-optimax-15", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Carrier")
}
