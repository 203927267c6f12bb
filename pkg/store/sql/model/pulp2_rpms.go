package model

import (
	"gorm.io/gorm"

	"github.com/goosemania/pulp-2to3-migrate/pkg/pulp2"
)

// Pulp2Rpm mapped from table <pulp2_rpms>.
// It stores Pulp 2 RPM details needed to create a Pulp 3 Package.
type Pulp2Rpm struct {
	ID             string         `gorm:"column:pulp_id;primaryKey;size:36"`
	Pulp2ContentID string         `gorm:"column:pulp2content_id;size:36;not null;uniqueIndex:idx_pulp2rpm_unit"`
	Pulp2Content   *Pulp2Content  `gorm:"foreignKey:Pulp2ContentID"`
	Name           string         `gorm:"column:name;size:255;not null;uniqueIndex:idx_pulp2rpm_unit"`
	Epoch          string         `gorm:"column:epoch;size:10;not null;uniqueIndex:idx_pulp2rpm_unit"`
	Version        string         `gorm:"column:version;size:64;not null;uniqueIndex:idx_pulp2rpm_unit"`
	Release        string         `gorm:"column:release;size:128;not null;uniqueIndex:idx_pulp2rpm_unit"`
	Arch           string         `gorm:"column:arch;size:32;not null;uniqueIndex:idx_pulp2rpm_unit"`
	Checksum       string         `gorm:"column:checksum;size:128;not null;uniqueIndex:idx_pulp2rpm_unit"`
	ChecksumType   string         `gorm:"column:checksumtype;size:16;not null;uniqueIndex:idx_pulp2rpm_unit"`
	Repodata       map[string]any `gorm:"column:repodata;type:text;serializer:json"`
	IsModular      bool           `gorm:"column:is_modular;not null"`
	Size           int64          `gorm:"column:size"`
	Filename       string         `gorm:"column:filename;type:text"`
}

func (Pulp2Rpm) TableName() string {
	return "pulp2_rpms"
}

func (r *Pulp2Rpm) BeforeCreate(_ *gorm.DB) error {
	newID(&r.ID)
	return nil
}

func NewPulp2RpmFromUnit(rpm pulp2.RPM, content Pulp2Content) Pulp2Rpm {
	return Pulp2Rpm{
		Pulp2ContentID: content.ID,
		Name:           rpm.Name,
		Epoch:          rpm.Epoch,
		Version:        rpm.Version,
		Release:        rpm.Release,
		Arch:           rpm.Arch,
		Checksum:       rpm.Checksum,
		ChecksumType:   rpm.ChecksumType,
		Repodata:       rpm.Repodata,
		IsModular:      rpm.IsModular,
		Size:           rpm.Size,
		Filename:       rpm.Filename,
	}
}

func (r Pulp2Rpm) ExpectedDigests() map[string]string {
	return map[string]string{r.ChecksumType: r.Checksum}
}

func (r Pulp2Rpm) ExpectedSize() int64 {
	return r.Size
}

func (r Pulp2Rpm) RelativePathForContentArtifact() string {
	return r.Filename
}
