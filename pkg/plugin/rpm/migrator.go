// Package rpm migrates RPM packages and errata.
package rpm

import (
	"github.com/goosemania/pulp-2to3-migrate/pkg/plugin"
	"github.com/goosemania/pulp-2to3-migrate/pkg/pulp2"
	"github.com/goosemania/pulp-2to3-migrate/pkg/store/sql/model"
)

const Name = "rpm"

type Migrator struct {
	details map[string]plugin.DetailModel
}

func NewMigrator() *Migrator {
	return &Migrator{
		details: map[string]plugin.DetailModel{
			pulp2.RPMTypeID:     packageDetail{},
			pulp2.ErratumTypeID: erratumDetail{},
		},
	}
}

func (m *Migrator) Name() string {
	return Name
}

// ContentTypes returns packages before errata, errata reference packages.
func (m *Migrator) ContentTypes() []string {
	return []string{pulp2.RPMTypeID, pulp2.ErratumTypeID}
}

//nolint:ireturn
func (m *Migrator) DetailModel(typeID string) (plugin.DetailModel, bool) {
	detail, ok := m.details[typeID]
	return detail, ok
}

// Register adds the rpm migrator to a registry.
func Register(registry *plugin.Registry) error {
	return registry.Register(NewMigrator())
}

func stagedByPulp2ID(batch []model.Pulp2Content) (map[string]model.Pulp2Content, []string) {
	staged := make(map[string]model.Pulp2Content, len(batch))
	ids := make([]string, 0, len(batch))

	for _, content := range batch {
		staged[content.Pulp2ID] = content
		ids = append(ids, content.Pulp2ID)
	}

	return staged, ids
}

func contentIDs(batch []model.Pulp2Content) []string {
	ids := make([]string, 0, len(batch))
	for _, content := range batch {
		ids = append(ids, content.ID)
	}

	return ids
}
