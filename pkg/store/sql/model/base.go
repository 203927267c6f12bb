package model

import "github.com/google/uuid"

// newID fills an empty primary key with a random UUID.
func newID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

// All returns every model managed by the store, in dependency order.
func All() []any {
	return []any{
		&Task{},
		&ProgressReport{},
		&MigrationPlan{},
		&Pulp2Content{},
		&Pulp2Rpm{},
		&Pulp2Erratum{},
		&Content{},
		&Artifact{},
		&ContentArtifact{},
		&Package{},
		&UpdateRecord{},
		&UpdateReference{},
		&UpdateCollection{},
		&UpdateCollectionPackage{},
	}
}
