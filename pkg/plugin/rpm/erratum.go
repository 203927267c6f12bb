package rpm

import (
	"context"
	"fmt"

	"github.com/goosemania/pulp-2to3-migrate/pkg/plugin"
	"github.com/goosemania/pulp-2to3-migrate/pkg/pulp2"
	"github.com/goosemania/pulp-2to3-migrate/pkg/store"
	"github.com/goosemania/pulp-2to3-migrate/pkg/store/sql/model"
)

type erratumDetail struct{}

func (erratumDetail) TypeID() string {
	return pulp2.ErratumTypeID
}

func (erratumDetail) PreMigrateContentDetail(
	ctx context.Context, source pulp2.Source, st store.ContentStore, batch []model.Pulp2Content,
) error {
	staged, ids := stagedByPulp2ID(batch)

	errata, err := source.Errata(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to read pulp 2 errata: %w", err)
	}

	if len(errata) != len(ids) {
		return fmt.Errorf(
			"%w: %d of %d pulp 2 errata no longer exist", plugin.ErrMissingDetail, len(ids)-len(errata), len(ids),
		)
	}

	details := make([]model.Pulp2Erratum, 0, len(errata))
	for _, erratum := range errata {
		details = append(details, model.NewPulp2ErratumFromUnit(erratum, staged[erratum.ID]))
	}

	if len(details) == 0 {
		return nil
	}

	return st.CreateDetails(ctx, &details)
}

func (erratumDetail) CreatePulp3Content(
	ctx context.Context, st store.ContentStore, batch []model.Pulp2Content,
) ([]plugin.PendingContent, error) {
	errata, err := st.Pulp2Errata(ctx, contentIDs(batch))
	if err != nil {
		return nil, err
	}

	byContent := make(map[string]model.Pulp2Erratum, len(errata))
	for _, erratum := range errata {
		byContent[erratum.Pulp2ContentID] = erratum
	}

	pending := make([]plugin.PendingContent, 0, len(batch))

	for _, content := range batch {
		erratum, ok := byContent[content.ID]
		if !ok {
			return nil, fmt.Errorf(
				"%w: pulp 2 erratum %s was never pre-migrated", plugin.ErrMissingDetail, content.Pulp2ID,
			)
		}

		pending = append(pending, plugin.PendingContent{
			Staged:  content,
			Content: newUpdateRecord(erratum),
		})
	}

	return pending, nil
}

func newUpdateRecord(erratum model.Pulp2Erratum) *model.UpdateRecord {
	record := &model.UpdateRecord{
		AdvisoryID:      erratum.ErrataID,
		UpdatedDate:     erratum.Updated,
		IssuedDate:      erratum.Issued,
		Description:     erratum.Description,
		FromStr:         erratum.ErrataFrom,
		Status:          erratum.Status,
		Title:           erratum.Title,
		Summary:         erratum.Summary,
		Version:         erratum.Version,
		Type:            erratum.Type,
		Severity:        erratum.Severity,
		Solution:        erratum.Solution,
		Release:         erratum.Release,
		Rights:          erratum.Rights,
		PushCount:       erratum.PushCount,
		RebootSuggested: erratum.RebootSuggested,
	}

	for _, reference := range erratum.References {
		record.References = append(record.References, model.UpdateReference{
			Href:    reference.Href,
			RefID:   reference.ID,
			Title:   reference.Title,
			RefType: reference.Type,
		})
	}

	for _, collection := range erratum.PkgList {
		record.Collections = append(record.Collections, newUpdateCollection(collection))
	}

	return record
}

func newUpdateCollection(collection pulp2.ErrataCollection) model.UpdateCollection {
	updateCollection := model.UpdateCollection{
		Name:      collection.Name,
		Shortname: collection.Short,
	}

	if collection.Module != nil {
		updateCollection.Module = map[string]string{
			"name":    collection.Module.Name,
			"stream":  collection.Module.Stream,
			"version": collection.Module.Version,
			"context": collection.Module.Context,
			"arch":    collection.Module.Arch,
		}
	}

	for _, pkg := range collection.Packages {
		collectionPackage := model.UpdateCollectionPackage{
			Name:            pkg.Name,
			Epoch:           pkg.Epoch,
			Version:         pkg.Version,
			Release:         pkg.Release,
			Arch:            pkg.Arch,
			Src:             pkg.Src,
			Filename:        pkg.Filename,
			RebootSuggested: pkg.RebootSuggested,
		}

		// Pulp 2 stores the sum as a [type, value] pair.
		if len(pkg.Sum) >= 2 { //nolint:mnd
			collectionPackage.SumType = pkg.Sum[0]
			collectionPackage.Sum = pkg.Sum[1]
		}

		updateCollection.Packages = append(updateCollection.Packages, collectionPackage)
	}

	return updateCollection
}
