package rpm

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/goosemania/pulp-2to3-migrate/pkg/plugin"
	"github.com/goosemania/pulp-2to3-migrate/pkg/pulp2"
	"github.com/goosemania/pulp-2to3-migrate/pkg/store"
	"github.com/goosemania/pulp-2to3-migrate/pkg/store/sql/model"
)

type packageDetail struct{}

func (packageDetail) TypeID() string {
	return pulp2.RPMTypeID
}

func (packageDetail) PreMigrateContentDetail(
	ctx context.Context, source pulp2.Source, st store.ContentStore, batch []model.Pulp2Content,
) error {
	staged, ids := stagedByPulp2ID(batch)

	rpms, err := source.RPMs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to read pulp 2 rpms: %w", err)
	}

	if len(rpms) != len(ids) {
		return fmt.Errorf(
			"%w: %d of %d pulp 2 rpms no longer exist", plugin.ErrMissingDetail, len(ids)-len(rpms), len(ids),
		)
	}

	details := make([]model.Pulp2Rpm, 0, len(rpms))
	for _, rpm := range rpms {
		details = append(details, model.NewPulp2RpmFromUnit(rpm, staged[rpm.ID]))
	}

	if len(details) == 0 {
		return nil
	}

	return st.CreateDetails(ctx, &details)
}

func (packageDetail) CreatePulp3Content(
	ctx context.Context, st store.ContentStore, batch []model.Pulp2Content,
) ([]plugin.PendingContent, error) {
	rpms, err := st.Pulp2Rpms(ctx, contentIDs(batch))
	if err != nil {
		return nil, err
	}

	byContent := make(map[string]model.Pulp2Rpm, len(rpms))
	for _, rpm := range rpms {
		byContent[rpm.Pulp2ContentID] = rpm
	}

	pending := make([]plugin.PendingContent, 0, len(batch))

	for _, content := range batch {
		rpm, ok := byContent[content.ID]
		if !ok {
			return nil, fmt.Errorf(
				"%w: pulp 2 rpm %s was never pre-migrated", plugin.ErrMissingDetail, content.Pulp2ID,
			)
		}

		pkg, err := newPackage(rpm)
		if err != nil {
			return nil, fmt.Errorf("failed to build package for pulp 2 rpm %s: %w", content.Pulp2ID, err)
		}

		pending = append(pending, plugin.PendingContent{
			Staged:  content,
			Content: pkg,
			Artifact: &plugin.ArtifactSpec{
				RelativePath:    rpm.RelativePathForContentArtifact(),
				ExpectedDigests: rpm.ExpectedDigests(),
				ExpectedSize:    rpm.ExpectedSize(),
			},
		})
	}

	return pending, nil
}

func pkgPath(filename string) string {
	if filename == "" {
		return "Packages"
	}

	first, _ := utf8.DecodeRuneInString(filename)

	return "Packages/" + strings.ToLower(string(first))
}

// newPackage builds a Package from the unit key and the fields recovered from the primary snippet.
func newPackage(rpm model.Pulp2Rpm) (*model.Package, error) {
	pkg := &model.Package{
		Name:         rpm.Name,
		Epoch:        rpm.Epoch,
		Version:      rpm.Version,
		Release:      rpm.Release,
		Arch:         rpm.Arch,
		PkgID:        rpm.Checksum,
		ChecksumType: rpm.ChecksumType,
		LocationHref: rpm.Filename,
		SizePackage:  rpm.Size,
		IsModular:    rpm.IsModular,
	}

	primary, err := parsePrimary(rpm.Repodata, map[string]string{
		"checksumtype": rpm.ChecksumType,
		"checksum":     rpm.Checksum,
		"pkgpath":      pkgPath(rpm.Filename),
	})
	if err != nil {
		return nil, err
	}

	if primary == nil {
		return pkg, nil
	}

	pkg.Summary = strings.TrimSpace(primary.Summary)
	pkg.Description = strings.TrimSpace(primary.Description)
	pkg.URL = primary.URL
	pkg.RPMLicense = primary.Format.License
	pkg.RPMVendor = primary.Format.Vendor
	pkg.RPMGroup = primary.Format.Group
	pkg.RPMBuildHost = primary.Format.BuildHost
	pkg.RPMSourceRPM = primary.Format.SourceRPM
	pkg.TimeBuild = primary.Time.Build
	pkg.TimeFile = primary.Time.File

	if pkg.SizePackage == 0 {
		pkg.SizePackage = primary.Size.Package
	}

	return pkg, nil
}
