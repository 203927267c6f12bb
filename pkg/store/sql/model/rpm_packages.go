package model

const PackagePulpType = "rpm.package"

// Package mapped from table <rpm_package>.
type Package struct {
	ContentPtrID string `gorm:"column:content_ptr_id;primaryKey;size:36"`
	Name         string `gorm:"column:name;size:255;not null;uniqueIndex:idx_package_nevra"`
	Epoch        string `gorm:"column:epoch;size:10;not null;uniqueIndex:idx_package_nevra"`
	Version      string `gorm:"column:version;size:64;not null;uniqueIndex:idx_package_nevra"`
	Release      string `gorm:"column:release;size:128;not null;uniqueIndex:idx_package_nevra"`
	Arch         string `gorm:"column:arch;size:32;not null;uniqueIndex:idx_package_nevra"`
	PkgID        string `gorm:"column:pkgId;size:128;not null;uniqueIndex:idx_package_nevra"`
	ChecksumType string `gorm:"column:checksum_type;size:16;not null;uniqueIndex:idx_package_nevra"`
	Summary      string `gorm:"column:summary;type:text"`
	Description  string `gorm:"column:description;type:text"`
	URL          string `gorm:"column:url;type:text"`
	RPMLicense   string `gorm:"column:rpm_license;type:text"`
	RPMVendor    string `gorm:"column:rpm_vendor;type:text"`
	RPMGroup     string `gorm:"column:rpm_group;type:text"`
	RPMBuildHost string `gorm:"column:rpm_buildhost;type:text"`
	RPMSourceRPM string `gorm:"column:rpm_sourcerpm;type:text"`
	TimeBuild    int64  `gorm:"column:time_build"`
	TimeFile     int64  `gorm:"column:time_file"`
	LocationHref string `gorm:"column:location_href;type:text"`
	SizePackage  int64  `gorm:"column:size_package"`
	IsModular    bool   `gorm:"column:is_modular;not null"`
}

func (Package) TableName() string {
	return "rpm_package"
}

func (*Package) PulpType() string {
	return PackagePulpType
}

func (p *Package) NaturalKey() map[string]any {
	return map[string]any{
		"name":          p.Name,
		"epoch":         p.Epoch,
		"version":       p.Version,
		"release":       p.Release,
		"arch":          p.Arch,
		"pkgId":         p.PkgID,
		"checksum_type": p.ChecksumType,
	}
}

func (p *Package) SetContentPtr(id string) {
	p.ContentPtrID = id
}
