package fakeapi

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"github.com/opst/mlstudio/cmd/mlstudio/rest"
)

// LogHandlerFunc logs each request and its response with the request id sent by the client.
func LogHandlerFunc(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		meth := c.Request().Method
		path := c.Request().URL
		reqId := c.Request().Header.Get(rest.HeaderRequestId)
		begin := time.Now()
		c.Logger().Infof("< request [%s] %s %s", reqId, meth, path)

		err := next(c)

		c.Logger().Infof(
			"> response [%s] status = %d (for %s %s) in %v / error = %+v",
			reqId, c.Response().Status, meth, path, time.Since(begin), err,
		)
		return err
	}
}

// SetLevel sets log level of echo by its name.
//
// Unknown names fall back to warn.
func SetLevel(e *echo.Echo, loglevel string) {
	switch strings.ToLower(loglevel) {
	case "debug":
		e.Logger.SetLevel(log.DEBUG)
	case "info":
		e.Logger.SetLevel(log.INFO)
	case "warn", "":
		e.Logger.SetLevel(log.WARN)
	case "error":
		e.Logger.SetLevel(log.ERROR)
	case "off":
		e.Logger.SetLevel(log.OFF)
	default:
		e.Logger.SetLevel(log.WARN)
		e.Logger.Warnf("unknown loglevel: %s . fall-backed to warn", loglevel)
	}
}
