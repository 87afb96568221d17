package httptransport_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	httptransport "trustbase/internal/transport/http"
	"trustbase/pkg/testutil"
)

type pingRegistrar struct{}

func (pingRegistrar) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Get("/api/ping", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"message":"pong"}`))
		})
	})
}

type RouterSuite struct {
	suite.Suite
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) TestMountsRegistrars() {
	router := httptransport.NewRouter([]httptransport.Registrar{pingRegistrar{}}, nil)

	rr := testutil.DoRequest(router, testutil.NewRequest(s.T(), http.MethodGet, "/api/ping"))
	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "message", "pong")
}

func (s *RouterSuite) TestHealthzAllHealthy() {
	router := httptransport.NewRouter(nil, map[string]httptransport.HealthChecker{
		"postgres": func() error { return nil },
		"redis":    func() error { return nil },
	})

	rr := testutil.DoRequest(router, testutil.NewRequest(s.T(), http.MethodGet, "/healthz"))
	testutil.AssertStatusOK(s.T(), rr)

	body := testutil.UnmarshalResponse[struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}](s.T(), rr)
	s.Equal("OK", body.Status)
	s.Equal("ok", body.Checks["postgres"])
	s.Equal("ok", body.Checks["redis"])
}

func (s *RouterSuite) TestHealthzReportsFailingDependency() {
	router := httptransport.NewRouter(nil, map[string]httptransport.HealthChecker{
		"postgres": func() error { return errors.New("connection refused") },
		"redis":    func() error { return nil },
	})

	rr := testutil.DoRequest(router, testutil.NewRequest(s.T(), http.MethodGet, "/healthz"))
	testutil.AssertStatus(s.T(), rr, http.StatusServiceUnavailable)

	body := testutil.UnmarshalResponse[struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}](s.T(), rr)
	s.Equal("Service Unavailable", body.Status)
	s.Equal("connection refused", body.Checks["postgres"])
	s.Equal("ok", body.Checks["redis"])
}

func (s *RouterSuite) TestMetricsExposed() {
	router := httptransport.NewRouter(nil, nil)

	rr := testutil.DoRequest(router, testutil.NewRequest(s.T(), http.MethodGet, "/metrics"))
	testutil.AssertStatusOK(s.T(), rr)
}

func (s *RouterSuite) TestUnknownRouteIs404() {
	router := httptransport.NewRouter(nil, nil)

	rr := testutil.DoRequest(router, testutil.NewRequest(s.T(), http.MethodGet, "/api/nope"))
	testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
}
