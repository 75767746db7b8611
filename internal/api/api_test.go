package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dealerhub/dealerhub/internal/config"
	"github.com/dealerhub/dealerhub/internal/database/mock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ServerTestSuite struct {
	suite.Suite
	db             *mock.MockDB
	dealerAPI      *httptest.Server
	sentimentAPI   *httptest.Server
	posted         atomic.Int32
	sentimentCalls atomic.Int32
}

func (s *ServerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.db = mock.NewMockDB()
	s.posted.Store(0)
	s.sentimentCalls.Store(0)

	s.dealerAPI = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/fetchDealers":
			fmt.Fprint(w, `[{"id":1,"state":"Texas"},{"id":2,"state":"Kansas"}]`)
		case r.URL.Path == "/fetchDealers/Kansas":
			fmt.Fprint(w, `[{"id":2,"state":"Kansas"}]`)
		case r.URL.Path == "/fetchDealer/2":
			fmt.Fprint(w, `{"id":2,"full_name":"Kansas Motors"}`)
		case r.URL.Path == "/fetchReviews/dealer/2":
			fmt.Fprint(w, `[{"id":10,"review":"Fantastic services"},{"id":11,"review":"Terrible"}]`)
		case r.URL.Path == "/fetchReviews/dealer/3":
			fmt.Fprint(w, `[null,{"id":12,"review":"Fantastic services"}]`)
		case r.URL.Path == "/insert_review" && r.Method == http.MethodPost:
			s.posted.Add(1)
			fmt.Fprint(w, `{"id":12}`)
		default:
			http.NotFound(w, r)
		}
	}))
	s.sentimentAPI = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.sentimentCalls.Add(1)
		text, _ := url.PathUnescape(strings.TrimPrefix(r.URL.EscapedPath(), "/analyze/"))
		switch text {
		case "Fantastic services":
			fmt.Fprint(w, `{"sentiment":"positive"}`)
		default:
			http.Error(w, "model not loaded", http.StatusServiceUnavailable)
		}
	}))
}

func (s *ServerTestSuite) TearDownTest() {
	s.dealerAPI.Close()
	s.sentimentAPI.Close()
}

func (s *ServerTestSuite) config(mode config.ReviewMode) *config.Config {
	return &config.Config{
		Listen:        "127.0.0.1:0",
		ServerURL:     "http://localhost",
		SessionKey:    "test-secret",
		SessionMaxAge: 3600,
		Database:      &config.DatabaseConfig{Path: "unused"},
		Dealers:       &config.DealersConfig{URL: s.dealerAPI.URL, Timeout: time.Second},
		Sentiment:     &config.SentimentConfig{URL: s.sentimentAPI.URL, Timeout: time.Second, Concurrency: 2},
		Review:        &config.ReviewConfig{Mode: mode},
		Cache:         &config.CacheConfig{Enabled: true, Type: config.CacheTypeMemory, TTL: time.Hour},
		Gravatar:      &config.GravatarConfig{Enabled: true, DefaultImage: "bogus", Size: 80},
		Log:           &config.LogConfig{Format: config.LogFormatText},
	}
}

func (s *ServerTestSuite) newServer(mode config.ReviewMode) *Server {
	srv, err := New(s.config(mode), s.db)
	s.Require().NoError(err)
	return srv
}

func (s *ServerTestSuite) do(srv *Server, method, path, body, token string) (*httptest.ResponseRecorder, map[string]any) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func (s *ServerTestSuite) TestNew_RequiresDependencies() {
	_, err := New(nil, s.db)
	s.Error(err)
	_, err = New(s.config(config.ReviewModePersist), nil)
	s.Error(err)
}

func (s *ServerTestSuite) TestNew_SanitizesGravatar() {
	srv := s.newServer(config.ReviewModePersist)
	s.Equal("robohash", srv.cfg.Gravatar.DefaultImage)
}

func (s *ServerTestSuite) TestHealthz() {
	srv := s.newServer(config.ReviewModePersist)

	w, out := s.do(srv, http.MethodGet, "/healthz", "", "")
	s.Equal(http.StatusOK, w.Code)
	s.Equal("ok", out["status"])

	s.db.PingError = errors.New("database is locked")
	w, _ = s.do(srv, http.MethodGet, "/healthz", "", "")
	s.Equal(http.StatusServiceUnavailable, w.Code)
}

func (s *ServerTestSuite) TestRequestIDHeader() {
	srv := s.newServer(config.ReviewModePersist)
	w, _ := s.do(srv, http.MethodGet, "/healthz", "", "")
	s.NotEmpty(w.Header().Get("X-Request-ID"))
}

func (s *ServerTestSuite) TestNotFound() {
	srv := s.newServer(config.ReviewModePersist)
	w, out := s.do(srv, http.MethodGet, "/djangoapp/nope", "", "")
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("Not Found", out["error"])
}

func (s *ServerTestSuite) TestPanicRecovery() {
	srv := s.newServer(config.ReviewModePersist)
	srv.ginEngine.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w, out := s.do(srv, http.MethodGet, "/boom", "", "")
	s.Equal(http.StatusInternalServerError, w.Code)
	s.Equal(map[string]any{"error": "An error occurred"}, out)
}

func (s *ServerTestSuite) TestPersistFlow() {
	srv := s.newServer(config.ReviewModePersist)

	// anonymous writes are rejected before reaching the dealer API
	w, out := s.do(srv, http.MethodPost, "/djangoapp/add_review", `{"dealership":2,"review":"Great"}`, "")
	s.Equal(http.StatusForbidden, w.Code)
	s.Equal("Unauthorized", out["message"])
	s.Equal(int32(0), s.posted.Load())

	w, out = s.do(srv, http.MethodPost, "/djangoapp/register",
		`{"userName":"bob","password":"x","firstName":"B","lastName":"O","email":"b@x.com"}`, "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("bob", out["userName"])
	s.Equal("Authenticated", out["status"])

	w, out = s.do(srv, http.MethodPost, "/djangoapp/register",
		`{"userName":"bob","password":"x","firstName":"B","lastName":"O","email":"b@x.com"}`, "")
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal(map[string]any{"userName": "bob", "error": "Already Registered"}, out)

	w, out = s.do(srv, http.MethodPost, "/djangoapp/login", `{"userName":"bob","password":"x"}`, "")
	s.Require().Equal(http.StatusOK, w.Code)
	token := out["token"].(string)

	w, out = s.do(srv, http.MethodGet, "/djangoapp/me", "", token)
	s.Equal(http.StatusOK, w.Code)
	s.Equal("b@x.com", out["email"])
	s.Contains(out["gravatarURL"], "d=robohash")

	w, out = s.do(srv, http.MethodPost, "/djangoapp/add_review", `{"dealership":2,"review":"Great","purchase":false}`, token)
	s.Equal(http.StatusOK, w.Code)
	s.Equal(map[string]any{"status": float64(200)}, out)
	s.Equal(int32(1), s.posted.Load())

	w, out = s.do(srv, http.MethodGet, "/djangoapp/logout", "", token)
	s.Equal(http.StatusOK, w.Code)
	s.Equal(map[string]any{"userName": ""}, out)

	w, _ = s.do(srv, http.MethodPost, "/djangoapp/add_review", `{"dealership":2,"review":"Great"}`, token)
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *ServerTestSuite) TestAnalyzeMode() {
	srv := s.newServer(config.ReviewModeAnalyze)

	w, out := s.do(srv, http.MethodPost, "/djangoapp/add_review", `{"reviewText":"Fantastic services","carModelId":4}`, "")
	s.Equal(http.StatusOK, w.Code)
	s.Equal(map[string]any{"status": "Review submitted", "sentiment": "positive"}, out)
	s.Equal(int32(0), s.posted.Load())

	w, out = s.do(srv, http.MethodPost, "/djangoapp/add_review", `{"reviewText":"Terrible","carModelId":4}`, "")
	s.Equal(http.StatusOK, w.Code)
	s.Equal("Can't analyze", out["sentiment"])

	w, _ = s.do(srv, http.MethodPost, "/djangoapp/add_review", `{"reviewText":"Terrible"}`, "")
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *ServerTestSuite) TestCatalog() {
	srv := s.newServer(config.ReviewModePersist)

	w, out := s.do(srv, http.MethodGet, "/djangoapp/get_cars", "", "")
	s.Equal(http.StatusOK, w.Code)
	s.Len(out["CarModels"], 15)
	s.Equal(1, s.db.SeedCalls)
}

func (s *ServerTestSuite) TestDealerEndpoints() {
	srv := s.newServer(config.ReviewModePersist)

	w, out := s.do(srv, http.MethodGet, "/djangoapp/get_dealers", "", "")
	s.Equal(http.StatusOK, w.Code)
	s.Len(out["dealers"], 2)

	_, out = s.do(srv, http.MethodGet, "/djangoapp/get_dealers/All", "", "")
	s.Len(out["dealers"], 2)

	_, out = s.do(srv, http.MethodGet, "/djangoapp/get_dealers/Kansas", "", "")
	s.Len(out["dealers"], 1)

	w, _ = s.do(srv, http.MethodGet, "/djangoapp/get_dealers/Nowhere", "", "")
	s.Equal(http.StatusBadGateway, w.Code)

	w, out = s.do(srv, http.MethodGet, "/djangoapp/dealer/2", "", "")
	s.Equal(http.StatusOK, w.Code)
	s.Equal("Kansas Motors", out["dealer"].(map[string]any)["full_name"])

	w, _ = s.do(srv, http.MethodGet, "/djangoapp/dealer/0", "", "")
	s.Equal(http.StatusBadRequest, w.Code)

	w, _ = s.do(srv, http.MethodGet, "/djangoapp/dealer/", "", "")
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *ServerTestSuite) TestReviewsAreAnnotatedAndCached() {
	srv := s.newServer(config.ReviewModePersist)

	for _, path := range []string{"/djangoapp/reviews/dealer/2", "/djangoapp/dealer/2/reviews"} {
		w, out := s.do(srv, http.MethodGet, path, "", "")
		s.Require().Equal(http.StatusOK, w.Code)
		reviews := out["reviews"].([]any)
		s.Require().Len(reviews, 2)
		s.Equal("positive", reviews[0].(map[string]any)["sentiment"])
		s.Equal("Can't analyze", reviews[1].(map[string]any)["sentiment"])
	}

	// the positive label is served from the cache the second time, failures are retried
	s.Equal(int32(3), s.sentimentCalls.Load())
	s.Require().NotNil(srv.sentimentCache)
	stats := srv.sentimentCache.Stats()
	s.Equal(1, stats.Hits)
	s.Equal(3, stats.Miss)

	for _, path := range []string{"/djangoapp/reviews/dealer/undefined", "/djangoapp/reviews/dealer/", "/djangoapp/dealer/None/reviews"} {
		w, out := s.do(srv, http.MethodGet, path, "", "")
		s.Equal(http.StatusBadRequest, w.Code, path)
		s.Equal("Bad Request", out["message"], path)
	}
	s.Equal(int32(3), s.sentimentCalls.Load())
}

func (s *ServerTestSuite) TestReviewsWithNullEntries() {
	srv := s.newServer(config.ReviewModePersist)

	w, out := s.do(srv, http.MethodGet, "/djangoapp/reviews/dealer/3", "", "")
	s.Require().Equal(http.StatusOK, w.Code)
	reviews := out["reviews"].([]any)
	s.Require().Len(reviews, 2)
	s.Nil(reviews[0])
	s.Equal("positive", reviews[1].(map[string]any)["sentiment"])
}

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func TestRun_GracefulShutdown(t *testing.T) {
	gin.SetMode(gin.TestMode)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	cfg := &config.Config{
		Listen:     addr,
		SessionKey: "secret",
		Dealers:    &config.DealersConfig{URL: "http://127.0.0.1:1", Timeout: time.Second},
		Sentiment:  &config.SentimentConfig{URL: "http://127.0.0.1:1", Timeout: time.Second, Concurrency: 1},
		Review:     &config.ReviewConfig{Mode: config.ReviewModePersist},
		Cache:      &config.CacheConfig{},
	}
	srv, err := New(cfg, mock.NewMockDB())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		defer resp.Body.Close() //nolint:errcheck
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
