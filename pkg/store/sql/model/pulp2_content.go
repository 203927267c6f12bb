package model

import (
	"time"

	"gorm.io/gorm"

	"github.com/goosemania/pulp-2to3-migrate/pkg/contract"
	"github.com/goosemania/pulp-2to3-migrate/pkg/pulp2"
)

// Pulp2Content mapped from table <pulp2_content>.
// It stages the generic part of a Pulp 2 unit before its detail is pre-migrated.
type Pulp2Content struct {
	ID                 string    `gorm:"column:pulp_id;primaryKey;size:36"`
	CreatedAt          time.Time `gorm:"column:pulp_created;not null"`
	Pulp2ID            string    `gorm:"column:pulp2_id;size:255;not null;uniqueIndex:idx_pulp2content_unit"`
	Pulp2ContentTypeID string    `gorm:"column:pulp2_content_type_id;size:255;not null;uniqueIndex:idx_pulp2content_unit"`
	Pulp2LastUpdated   int64     `gorm:"column:pulp2_last_updated;not null;index"`
	Pulp2StoragePath   *string   `gorm:"column:pulp2_storage_path;type:text"`
	Downloaded         bool      `gorm:"column:downloaded;not null"`
	Pulp3ContentID     *string   `gorm:"column:pulp3_content_id;size:36;index"`
	Pulp3Content       *Content  `gorm:"foreignKey:Pulp3ContentID"`
}

func (Pulp2Content) TableName() string {
	return "pulp2_content"
}

func (c *Pulp2Content) BeforeCreate(_ *gorm.DB) error {
	newID(&c.ID)
	return nil
}

func NewPulp2ContentFromUnit(unit pulp2.FileContentUnit) Pulp2Content {
	content := Pulp2Content{
		Pulp2ID:            unit.ID,
		Pulp2ContentTypeID: unit.ContentTypeID,
		Pulp2LastUpdated:   unit.LastUpdated,
	}

	if unit.StoragePath != "" {
		storagePath := unit.StoragePath
		content.Pulp2StoragePath = &storagePath
		content.Downloaded = unit.IsDownloaded()
	}

	return content
}

func (c Pulp2Content) ToContract(apiRoot string) *contract.Pulp2Content {
	var pulp3Content *string
	if c.Pulp3ContentID != nil {
		pulpType := ""
		if c.Pulp3Content != nil {
			pulpType = c.Pulp3Content.PulpType
		}
		href := contract.ContentHref(apiRoot, pulpType, *c.Pulp3ContentID)
		pulp3Content = &href
	}

	return &contract.Pulp2Content{
		PulpHref:           contract.Href(apiRoot, contract.Pulp2ContentEndpoint, c.ID),
		PulpCreated:        c.CreatedAt,
		Pulp2ID:            c.Pulp2ID,
		Pulp2ContentTypeID: c.Pulp2ContentTypeID,
		Pulp2LastUpdated:   c.Pulp2LastUpdated,
		Pulp2StoragePath:   c.Pulp2StoragePath,
		Downloaded:         c.Downloaded,
		Pulp3Content:       pulp3Content,
	}
}
