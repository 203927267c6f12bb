// Package pulp2 reads content units from the Pulp 2 MongoDB database.
package pulp2

// ContentUnit holds the fields every Pulp 2 content unit document carries.
type ContentUnit struct {
	ID               string         `bson:"_id"`
	ContentTypeID    string         `bson:"_content_type_id"`
	LastUpdated      int64          `bson:"_last_updated"`
	Namespace        string         `bson:"_ns,omitempty"`
	PulpUserMetadata map[string]any `bson:"pulp_user_metadata,omitempty"`
}

// FileContentUnit is a content unit backed by a single file in Pulp 2 storage.
type FileContentUnit struct {
	ContentUnit `bson:",inline"`
	StoragePath string `bson:"_storage_path,omitempty"`
	Downloaded  *bool  `bson:"downloaded,omitempty"`
}

// IsDownloaded reports whether the unit file is present in storage.
// Units created before the field existed were always downloaded.
func (u FileContentUnit) IsDownloaded() bool {
	return u.Downloaded == nil || *u.Downloaded
}

// NonMetadataPackage is shared by packages which are not metadata.
type NonMetadataPackage struct {
	FileContentUnit `bson:",inline"`

	Version      string            `bson:"version"`
	Release      string            `bson:"release"`
	Checksum     string            `bson:"checksum"`
	ChecksumType string            `bson:"checksumtype"`
	Checksums    map[string]string `bson:"checksums,omitempty"`
	SigningKey   string            `bson:"signing_key,omitempty"`

	VersionSortIndex string `bson:"version_sort_index,omitempty"`
	ReleaseSortIndex string `bson:"release_sort_index,omitempty"`
}

// RpmBase maps metadata fields of the RPM package format. Both RPM and SRPM share it.
type RpmBase struct {
	NonMetadataPackage `bson:",inline"`

	Name  string `bson:"name"`
	Epoch string `bson:"epoch"`
	Arch  string `bson:"arch"`

	BuildTime       int64          `bson:"build_time,omitempty"`
	BuildHost       string         `bson:"buildhost,omitempty"`
	Vendor          string         `bson:"vendor,omitempty"`
	Size            int64          `bson:"size,omitempty"`
	BaseURL         string         `bson:"base_url,omitempty"`
	Filename        string         `bson:"filename,omitempty"`
	RelativeURLPath string         `bson:"relative_url_path,omitempty"`
	RelativePath    string         `bson:"relativepath,omitempty"`
	Group           string         `bson:"group,omitempty"`
	Provides        []any          `bson:"provides,omitempty"`
	Files           map[string]any `bson:"files,omitempty"`
	Repodata        map[string]any `bson:"repodata,omitempty"`
	Description     string         `bson:"description,omitempty"`
	HeaderRange     map[string]any `bson:"header_range,omitempty"`
	SourceRPM       string         `bson:"sourcerpm,omitempty"`
	License         string         `bson:"license,omitempty"`
	Changelog       []any          `bson:"changelog,omitempty"`
	URL             string         `bson:"url,omitempty"`
	Summary         string         `bson:"summary,omitempty"`
	Time            int64          `bson:"time,omitempty"`
	Requires        []any          `bson:"requires,omitempty"`
	Recommends      []any          `bson:"recommends,omitempty"`
}

const (
	RPMTypeID     = "rpm"
	ErratumTypeID = "erratum"
)

// RPM becomes a Package in Pulp 3.
type RPM struct {
	RpmBase `bson:",inline"`

	IsModular bool `bson:"is_modular"`
}

// UnitKey returns the fields which identify an RPM in Pulp 2.
func (r RPM) UnitKey() []string {
	return []string{r.Name, r.Epoch, r.Version, r.Release, r.Arch, r.ChecksumType, r.Checksum}
}

type ErrataReference struct {
	Href  string `bson:"href"  json:"href"`
	Type  string `bson:"type"  json:"type"`
	ID    string `bson:"id"    json:"id"`
	Title string `bson:"title" json:"title"`
}

type ErrataPackage struct {
	Name            string   `bson:"name"             json:"name"`
	Epoch           string   `bson:"epoch"            json:"epoch"`
	Version         string   `bson:"version"          json:"version"`
	Release         string   `bson:"release"          json:"release"`
	Arch            string   `bson:"arch"             json:"arch"`
	Src             string   `bson:"src"              json:"src"`
	Filename        string   `bson:"filename"         json:"filename"`
	Sum             []string `bson:"sum"              json:"sum"`
	RebootSuggested bool     `bson:"reboot_suggested" json:"reboot_suggested"`
}

type ErrataModule struct {
	Name    string `bson:"name"    json:"name"`
	Stream  string `bson:"stream"  json:"stream"`
	Version string `bson:"version" json:"version"`
	Context string `bson:"context" json:"context"`
	Arch    string `bson:"arch"    json:"arch"`
}

type ErrataCollection struct {
	Name     string          `bson:"name"             json:"name"`
	Short    string          `bson:"short"            json:"short"`
	Module   *ErrataModule   `bson:"module,omitempty" json:"module,omitempty"`
	Packages []ErrataPackage `bson:"packages"         json:"packages"`
}

// Errata becomes an Advisory in Pulp 3.
type Errata struct {
	ContentUnit `bson:",inline"`

	ErrataID         string             `bson:"errata_id"`
	Status           string             `bson:"status,omitempty"`
	Updated          string             `bson:"updated"`
	Description      string             `bson:"description,omitempty"`
	Issued           string             `bson:"issued,omitempty"`
	PushCount        string             `bson:"pushcount,omitempty"`
	References       []ErrataReference  `bson:"references,omitempty"`
	RebootSuggested  bool               `bson:"reboot_suggested"`
	ReloginSuggested bool               `bson:"relogin_suggested"`
	RestartSuggested bool               `bson:"restart_suggested"`
	ErrataFrom       string             `bson:"from,omitempty"`
	Severity         string             `bson:"severity,omitempty"`
	Rights           string             `bson:"rights,omitempty"`
	Version          string             `bson:"version,omitempty"`
	Release          string             `bson:"release,omitempty"`
	Type             string             `bson:"type,omitempty"`
	PkgList          []ErrataCollection `bson:"pkglist,omitempty"`
	Title            string             `bson:"title,omitempty"`
	Solution         string             `bson:"solution,omitempty"`
	Summary          string             `bson:"summary,omitempty"`
}

// collections maps a content type to the MongoDB collection holding its units.
//
//nolint:gochecknoglobals
var collections = map[string]string{
	RPMTypeID:     "units_rpm",
	ErratumTypeID: "units_erratum",
}

func CollectionName(typeID string) (string, bool) {
	name, ok := collections[typeID]
	return name, ok
}
