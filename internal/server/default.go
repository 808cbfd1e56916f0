package server

import (
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/dazedniteman/pathpal-crm/pkg/application"
	"github.com/dazedniteman/pathpal-crm/pkg/configuration"
	"github.com/dazedniteman/pathpal-crm/pkg/constants"
	"github.com/dazedniteman/pathpal-crm/pkg/metrics"
	"github.com/dazedniteman/pathpal-crm/pkg/middleware"
	"github.com/dazedniteman/pathpal-crm/pkg/server"
)

type DefaultOptions struct {
	Logger        *logrus.Logger
	Configuration *configuration.Configuration
	Application   application.Application
	Pool          *pgxpool.Pool
}

func Default(options *DefaultOptions) (*server.HTTPServer, error) {
	app := options.Application

	middlewares := []mux.MiddlewareFunc{
		middleware.WithLogger(options.Logger),
		middleware.Provide(constants.AppKey, app),
		middleware.ProvidePool(options.Pool),
	}
	app.RegisterMiddleware(middlewares...)

	if options.Configuration.Prometheus.Enabled {
		app.RegisterControllers(
			metrics.NewPrometheusController(options.Configuration.Prometheus.Path),
		)
	}

	return server.NewHTTPServer(app), nil
}
