package modules

import (
	"github.com/dazedniteman/pathpal-crm/modules/crm"
	"github.com/dazedniteman/pathpal-crm/pkg/application"
)

var BuiltInModules = []application.Module{
	crm.NewModule(),
}

func Load(app application.Application, mods ...application.Module) error {
	for _, module := range mods {
		if err := module.Register(app); err != nil {
			return err
		}
	}
	return nil
}
