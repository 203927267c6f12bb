package model

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"github.com/goosemania/pulp-2to3-migrate/pkg/contract"
)

// MigrationPlan mapped from table <migration_plans>.
type MigrationPlan struct {
	ID        string    `gorm:"column:pulp_id;primaryKey;size:36"`
	CreatedAt time.Time `gorm:"column:pulp_created;not null"`
	Plan      string    `gorm:"column:plan;type:text;not null"`
	Tasks     []Task    `gorm:"many2many:migration_plan_tasks;joinForeignKey:MigrationPlanID;joinReferences:TaskID"`
}

func (MigrationPlan) TableName() string {
	return "migration_plans"
}

func (p *MigrationPlan) BeforeCreate(_ *gorm.DB) error {
	newID(&p.ID)
	return nil
}

func (p MigrationPlan) ToContract(apiRoot string) *contract.MigrationPlan {
	return &contract.MigrationPlan{
		PulpHref:    contract.Href(apiRoot, contract.MigrationPlansEndpoint, p.ID),
		PulpCreated: p.CreatedAt,
		Plan:        json.RawMessage(p.Plan),
	}
}
