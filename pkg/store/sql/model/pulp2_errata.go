package model

import (
	"gorm.io/gorm"

	"github.com/goosemania/pulp-2to3-migrate/pkg/pulp2"
)

// Pulp2Erratum mapped from table <pulp2_errata>.
// It stores Pulp 2 erratum details needed to create a Pulp 3 Advisory.
type Pulp2Erratum struct {
	ID               string                   `gorm:"column:pulp_id;primaryKey;size:36"`
	Pulp2ContentID   string                   `gorm:"column:pulp2content_id;size:36;not null;uniqueIndex:idx_pulp2erratum_unit"`
	Pulp2Content     *Pulp2Content            `gorm:"foreignKey:Pulp2ContentID"`
	ErrataID         string                   `gorm:"column:errata_id;size:255;not null;uniqueIndex:idx_pulp2erratum_unit"`
	Updated          string                   `gorm:"column:updated;size:64;not null"`
	Issued           string                   `gorm:"column:issued;size:64"`
	Status           string                   `gorm:"column:status;size:64"`
	Description      string                   `gorm:"column:description;type:text"`
	PushCount        string                   `gorm:"column:pushcount;size:64"`
	References       []pulp2.ErrataReference  `gorm:"column:references;type:text;serializer:json"`
	RebootSuggested  bool                     `gorm:"column:reboot_suggested;not null"`
	ReloginSuggested bool                     `gorm:"column:relogin_suggested;not null"`
	RestartSuggested bool                     `gorm:"column:restart_suggested;not null"`
	ErrataFrom       string                   `gorm:"column:errata_from;size:255"`
	Severity         string                   `gorm:"column:severity;size:64"`
	Rights           string                   `gorm:"column:rights;type:text"`
	Version          string                   `gorm:"column:version;size:64"`
	Release          string                   `gorm:"column:release;size:128"`
	Type             string                   `gorm:"column:type;size:64"`
	PkgList          []pulp2.ErrataCollection `gorm:"column:pkglist;type:text;serializer:json"`
	Title            string                   `gorm:"column:title;type:text"`
	Solution         string                   `gorm:"column:solution;type:text"`
	Summary          string                   `gorm:"column:summary;type:text"`
}

func (Pulp2Erratum) TableName() string {
	return "pulp2_errata"
}

func (e *Pulp2Erratum) BeforeCreate(_ *gorm.DB) error {
	newID(&e.ID)
	return nil
}

func NewPulp2ErratumFromUnit(erratum pulp2.Errata, content Pulp2Content) Pulp2Erratum {
	return Pulp2Erratum{
		Pulp2ContentID:   content.ID,
		ErrataID:         erratum.ErrataID,
		Updated:          erratum.Updated,
		Issued:           erratum.Issued,
		Status:           erratum.Status,
		Description:      erratum.Description,
		PushCount:        erratum.PushCount,
		References:       erratum.References,
		RebootSuggested:  erratum.RebootSuggested,
		ReloginSuggested: erratum.ReloginSuggested,
		RestartSuggested: erratum.RestartSuggested,
		ErrataFrom:       erratum.ErrataFrom,
		Severity:         erratum.Severity,
		Rights:           erratum.Rights,
		Version:          erratum.Version,
		Release:          erratum.Release,
		Type:             erratum.Type,
		PkgList:          erratum.PkgList,
		Title:            erratum.Title,
		Solution:         erratum.Solution,
		Summary:          erratum.Summary,
	}
}
