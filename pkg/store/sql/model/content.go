package model

import (
	"time"

	"gorm.io/gorm"
)

// Content mapped from table <core_content>. Every Pulp 3 content type points to one row.
type Content struct {
	ID        string    `gorm:"column:pulp_id;primaryKey;size:36"`
	CreatedAt time.Time `gorm:"column:pulp_created;not null"`
	PulpType  string    `gorm:"column:pulp_type;size:64;not null;index"`
}

func (Content) TableName() string {
	return "core_content"
}

func (c *Content) BeforeCreate(_ *gorm.DB) error {
	newID(&c.ID)
	return nil
}

// Pulp3Content is implemented by the detail models of Pulp 3 content types.
type Pulp3Content interface {
	PulpType() string
	// NaturalKey returns the columns identifying the content, used to reuse content migrated earlier.
	NaturalKey() map[string]any
	SetContentPtr(id string)
}

// Artifact mapped from table <core_artifact>.
type Artifact struct {
	ID        string    `gorm:"column:pulp_id;primaryKey;size:36"`
	CreatedAt time.Time `gorm:"column:pulp_created;not null"`
	File      string    `gorm:"column:file;type:text;not null"`
	Size      int64     `gorm:"column:size;not null"`
	MD5       string    `gorm:"column:md5;size:32"`
	SHA1      string    `gorm:"column:sha1;size:40"`
	SHA224    string    `gorm:"column:sha224;size:56"`
	SHA256    string    `gorm:"column:sha256;size:64;not null;uniqueIndex"`
	SHA384    string    `gorm:"column:sha384;size:96"`
	SHA512    string    `gorm:"column:sha512;size:128"`
}

func (Artifact) TableName() string {
	return "core_artifact"
}

func (a *Artifact) BeforeCreate(_ *gorm.DB) error {
	newID(&a.ID)
	return nil
}

// ContentArtifact mapped from table <core_contentartifact>.
// A nil ArtifactID means the file is downloaded on demand.
type ContentArtifact struct {
	ID           string    `gorm:"column:pulp_id;primaryKey;size:36"`
	CreatedAt    time.Time `gorm:"column:pulp_created;not null"`
	ContentID    string    `gorm:"column:content_id;size:36;not null;uniqueIndex:idx_contentartifact_path"`
	ArtifactID   *string   `gorm:"column:artifact_id;size:36;index"`
	Artifact     *Artifact `gorm:"foreignKey:ArtifactID"`
	RelativePath string    `gorm:"column:relative_path;size:255;not null;uniqueIndex:idx_contentartifact_path"`
}

func (ContentArtifact) TableName() string {
	return "core_contentartifact"
}

func (c *ContentArtifact) BeforeCreate(_ *gorm.DB) error {
	newID(&c.ID)
	return nil
}
