package migration

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/goosemania/pulp-2to3-migrate/pkg/plugin"
)

var ErrInvalidPlan = errors.New("invalid migration plan")

type PluginPlan struct {
	Type     string
	Migrator plugin.Migrator
}

type Plan struct {
	Plugins []PluginPlan
}

// ParsePlan validates a migration plan such as {"plugins": [{"type": "rpm"}]} and resolves
// the migrator of every plugin. Plugins are unique and migrated in the listed order.
func ParsePlan(raw []byte, registry *plugin.Registry) (*Plan, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%w: plan is not valid JSON", ErrInvalidPlan)
	}

	document := gjson.ParseBytes(raw)
	if !document.IsObject() {
		return nil, fmt.Errorf("%w: plan must be a JSON object", ErrInvalidPlan)
	}

	plugins := document.Get("plugins")
	if !plugins.IsArray() || len(plugins.Array()) == 0 {
		return nil, fmt.Errorf("%w: 'plugins' must be a non-empty list", ErrInvalidPlan)
	}

	plan := &Plan{}
	seen := make(map[string]struct{})

	for index, entry := range plugins.Array() {
		pluginType := entry.Get("type")
		if !entry.IsObject() || pluginType.Type != gjson.String || pluginType.String() == "" {
			return nil, fmt.Errorf("%w: plugins[%d] must be an object with a 'type'", ErrInvalidPlan, index)
		}

		name := pluginType.String()
		if _, ok := seen[name]; ok {
			return nil, fmt.Errorf("%w: plugin %q is listed more than once", ErrInvalidPlan, name)
		}

		seen[name] = struct{}{}

		migrator, ok := registry.Get(name)
		if !ok {
			return nil, fmt.Errorf(
				"%w: plugin %q is not supported, supported plugins are %v", ErrInvalidPlan, name, registry.Names(),
			)
		}

		plan.Plugins = append(plan.Plugins, PluginPlan{Type: name, Migrator: migrator})
	}

	return plan, nil
}

type contentType struct {
	typeID string
	detail plugin.DetailModel
}

// contentTypes lists the content types of every plugin in plan order.
func (p *Plan) contentTypes() []contentType {
	var types []contentType

	for _, pluginPlan := range p.Plugins {
		for _, typeID := range pluginPlan.Migrator.ContentTypes() {
			detail, ok := pluginPlan.Migrator.DetailModel(typeID)
			if !ok {
				continue
			}

			types = append(types, contentType{typeID: typeID, detail: detail})
		}
	}

	return types
}
