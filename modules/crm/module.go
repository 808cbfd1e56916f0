package crm

import (
	"embed"
	"time"

	"github.com/dazedniteman/pathpal-crm/modules/crm/infrastructure/persistence"
	"github.com/dazedniteman/pathpal-crm/modules/crm/presentation/controllers"
	"github.com/dazedniteman/pathpal-crm/modules/crm/services"
	"github.com/dazedniteman/pathpal-crm/pkg/application"
	"github.com/dazedniteman/pathpal-crm/pkg/configuration"
)

//go:embed infrastructure/persistence/schema/crm-schema.sql
var migrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	app.RegisterSchema(&migrationFiles)

	conf := configuration.Use()
	repo := persistence.NewContactRepository()
	ttl := time.Duration(conf.Import.SessionTTLMinutes) * time.Minute

	app.RegisterServices(
		services.NewContactService(repo),
		services.NewImportService(repo, app.EventPublisher(), app.Logger(), ttl),
	)

	app.RegisterControllers(
		controllers.NewContactAPIController(app),
		controllers.NewImportAPIController(app),
	)

	return nil
}

func (m *Module) Name() string {
	return "crm"
}
