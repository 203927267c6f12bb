package sql

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/goosemania/pulp-2to3-migrate/pkg/store"
	"github.com/goosemania/pulp-2to3-migrate/pkg/store/sql/model"
)

func (s Store) InTransaction(ctx context.Context, fn func(store.ContentStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(Store{config: s.config, db: tx})
	})
}

func (s Store) LastUpdated(ctx context.Context, typeID string) (int64, error) {
	var lastUpdated int64

	if err := s.db.WithContext(ctx).
		Model(&model.Pulp2Content{}).
		Where("pulp2_content_type_id = ?", typeID).
		Select("COALESCE(MAX(pulp2_last_updated), 0)").
		Row().
		Scan(&lastUpdated); err != nil {
		return 0, fmt.Errorf("failed to get last updated timestamp of %s content: %w", typeID, err)
	}

	return lastUpdated, nil
}

// CreatePulp2Content stages a batch of Pulp 2 units. Units staged before keep their
// staging row but pick up a newer last-updated timestamp and storage state.
func (s Store) CreatePulp2Content(ctx context.Context, batch []model.Pulp2Content) ([]model.Pulp2Content, error) {
	if len(batch) == 0 {
		return nil, nil
	}

	pulp2IDs := make([]string, 0, len(batch))
	typeIDs := make(map[string]struct{})

	for _, content := range batch {
		pulp2IDs = append(pulp2IDs, content.Pulp2ID)
		typeIDs[content.Pulp2ContentTypeID] = struct{}{}
	}

	types := make([]string, 0, len(typeIDs))
	for typeID := range typeIDs {
		types = append(types, typeID)
	}

	var staged []model.Pulp2Content

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "pulp2_id"}, {Name: "pulp2_content_type_id"}},
			DoUpdates: clause.AssignmentColumns(
				[]string{"pulp2_last_updated", "pulp2_storage_path", "downloaded"},
			),
		}).Omit(clause.Associations).CreateInBatches(&batch, s.batchSize()).Error; err != nil {
			return fmt.Errorf("failed to stage pulp 2 content: %w", err)
		}

		if err := tx.
			Where("pulp2_id IN ? AND pulp2_content_type_id IN ?", pulp2IDs, types).
			Order("pulp2_last_updated").
			Order("pulp_id").
			Find(&staged).Error; err != nil {
			return fmt.Errorf("failed to read staged pulp 2 content: %w", err)
		}

		return nil
	}); err != nil {
		return nil, err
	}

	return staged, nil
}

// CreateDetails bulk creates detail models (a slice of them), ignoring the ones already present.
func (s Store) CreateDetails(ctx context.Context, details any) error {
	if err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Omit(clause.Associations).
		CreateInBatches(details, s.batchSize()).Error; err != nil {
		return fmt.Errorf("failed to create detail content: %w", err)
	}

	return nil
}

func unmigrated(db *gorm.DB, typeID string) *gorm.DB {
	return db.Model(&model.Pulp2Content{}).
		Where("pulp2_content_type_id = ? AND pulp3_content_id IS NULL", typeID)
}

func (s Store) UnmigratedContent(
	ctx context.Context, typeID, after string, limit int,
) ([]model.Pulp2Content, error) {
	var contents []model.Pulp2Content

	if err := unmigrated(s.db.WithContext(ctx), typeID).
		Where("pulp_id > ?", after).
		Order("pulp_id").
		Limit(limit).
		Find(&contents).Error; err != nil {
		return nil, fmt.Errorf("failed to list unmigrated %s content: %w", typeID, err)
	}

	return contents, nil
}

func (s Store) CountUnmigratedContent(ctx context.Context, typeID string) (int64, error) {
	var count int64
	if err := unmigrated(s.db.WithContext(ctx), typeID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count unmigrated %s content: %w", typeID, err)
	}

	return count, nil
}

func (s Store) Pulp2Rpms(ctx context.Context, contentIDs []string) ([]model.Pulp2Rpm, error) {
	var rpms []model.Pulp2Rpm
	if err := s.db.WithContext(ctx).Where("pulp2content_id IN ?", contentIDs).Find(&rpms).Error; err != nil {
		return nil, fmt.Errorf("failed to get pulp 2 rpms: %w", err)
	}

	return rpms, nil
}

func (s Store) Pulp2Errata(ctx context.Context, contentIDs []string) ([]model.Pulp2Erratum, error) {
	var errata []model.Pulp2Erratum
	if err := s.db.WithContext(ctx).Where("pulp2content_id IN ?", contentIDs).Find(&errata).Error; err != nil {
		return nil, fmt.Errorf("failed to get pulp 2 errata: %w", err)
	}

	return errata, nil
}

func findOrCreateArtifact(tx *gorm.DB, artifact *model.Artifact) (string, error) {
	var existing model.Artifact

	err := tx.Where("sha256 = ?", artifact.SHA256).First(&existing).Error
	switch {
	case err == nil:
		return existing.ID, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return "", fmt.Errorf("failed to look up artifact %s: %w", artifact.SHA256, err)
	}

	if err := tx.Create(artifact).Error; err != nil {
		return "", fmt.Errorf("failed to create artifact %s: %w", artifact.SHA256, err)
	}

	return artifact.ID, nil
}

// SavePulp3Content creates the Pulp 3 content unless content with the same natural key exists,
// attaches its content artifacts and links the staged Pulp 2 content to it.
func (s Store) SavePulp3Content(
	ctx context.Context,
	staged model.Pulp2Content,
	content model.Pulp3Content,
	artifacts []model.ContentArtifact,
) (string, error) {
	var contentID string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []string
		if err := tx.Model(content).
			Where(content.NaturalKey()).
			Limit(1).
			Pluck("content_ptr_id", &existing).Error; err != nil {
			return fmt.Errorf("failed to look up %s content: %w", content.PulpType(), err)
		}

		if len(existing) > 0 {
			contentID = existing[0]
		} else {
			base := model.Content{PulpType: content.PulpType()}
			if err := tx.Create(&base).Error; err != nil {
				return fmt.Errorf("failed to create content: %w", err)
			}

			content.SetContentPtr(base.ID)

			if err := tx.Create(content).Error; err != nil {
				return fmt.Errorf("failed to create %s content: %w", content.PulpType(), err)
			}

			contentID = base.ID
		}

		for _, contentArtifact := range artifacts {
			if contentArtifact.Artifact != nil {
				artifactID, err := findOrCreateArtifact(tx, contentArtifact.Artifact)
				if err != nil {
					return err
				}

				contentArtifact.ArtifactID = &artifactID
				contentArtifact.Artifact = nil
			}

			contentArtifact.ContentID = contentID

			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "content_id"}, {Name: "relative_path"}},
				DoNothing: true,
			}).Create(&contentArtifact).Error; err != nil {
				return fmt.Errorf("failed to create content artifact %s: %w", contentArtifact.RelativePath, err)
			}
		}

		if err := tx.Model(&model.Pulp2Content{}).
			Where("pulp_id = ?", staged.ID).
			Update("pulp3_content_id", contentID).Error; err != nil {
			return fmt.Errorf("failed to link pulp 2 content %s: %w", staged.Pulp2ID, err)
		}

		return nil
	})
	if err != nil {
		return "", err
	}

	return contentID, nil
}
