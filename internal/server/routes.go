package server

import (
	"net/http"
	"time"

	"github.com/berfenger/optoma2mqtt/internal/core/domain"
	"github.com/berfenger/optoma2mqtt/internal/util/actorutil"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	e.HideBanner = true
	if s.httpLog {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.Recover())

	e.GET("/healthcheck", s.HealthCheckHandler)
	e.GET("/projector", s.ProjectorStatusHandler)
	e.POST("/projector/power/:state", s.ProjectorPowerHandler)
	if s.gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	return e
}

func (s *Server) HealthCheckHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.ActorHealthRequest{}, 10*time.Second).Result()
	if err != nil {
		return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
	}
	if response, ok := res.(domain.ActorHealthResponse); ok && response.Healthy {
		return c.String(http.StatusOK, "health_check: OK")
	}
	return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
}

// ProjectorStatusHandler returns the cached link status. It never touches the
// serial port.
func (s *Server) ProjectorStatusHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.GetProjectorStatusRequest{}, 5*time.Second).Result()
	if err != nil {
		return echo.NewHTTPError(http.StatusGatewayTimeout, err.Error())
	}
	response, ok := res.(domain.GetProjectorStatusResponse)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "unexpected response")
	}
	return c.JSON(http.StatusOK, response.Status)
}

func (s *Server) ProjectorPowerHandler(c echo.Context) error {
	on, err := actorutil.ParseSwitchPayload(c.Param("state"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "state must be on or off")
	}
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.SetPowerRequest{On: on}, s.requestTimeout).Result()
	if err != nil {
		return echo.NewHTTPError(http.StatusGatewayTimeout, err.Error())
	}
	response, ok := res.(domain.SetPowerResponse)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "unexpected response")
	}
	if response.HasResponseError() {
		return echo.NewHTTPError(http.StatusGatewayTimeout, response.GetResponseError().Error())
	}
	return c.JSON(http.StatusAccepted, response.Status)
}
