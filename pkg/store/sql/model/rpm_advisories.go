package model

const AdvisoryPulpType = "rpm.advisory"

// UpdateRecord mapped from table <rpm_updaterecord>. It is the Pulp 3 Advisory.
type UpdateRecord struct {
	ContentPtrID    string             `gorm:"column:content_ptr_id;primaryKey;size:36"`
	AdvisoryID      string             `gorm:"column:id;size:255;not null;uniqueIndex"`
	UpdatedDate     string             `gorm:"column:updated_date;size:64"`
	IssuedDate      string             `gorm:"column:issued_date;size:64"`
	Description     string             `gorm:"column:description;type:text"`
	FromStr         string             `gorm:"column:fromstr;size:255"`
	Status          string             `gorm:"column:status;size:64"`
	Title           string             `gorm:"column:title;type:text"`
	Summary         string             `gorm:"column:summary;type:text"`
	Version         string             `gorm:"column:version;size:64"`
	Type            string             `gorm:"column:type;size:64"`
	Severity        string             `gorm:"column:severity;size:64"`
	Solution        string             `gorm:"column:solution;type:text"`
	Release         string             `gorm:"column:release;size:128"`
	Rights          string             `gorm:"column:rights;type:text"`
	PushCount       string             `gorm:"column:pushcount;size:64"`
	RebootSuggested bool               `gorm:"column:reboot_suggested;not null"`
	References      []UpdateReference  `gorm:"foreignKey:UpdateRecordID"`
	Collections     []UpdateCollection `gorm:"foreignKey:UpdateRecordID"`
}

func (UpdateRecord) TableName() string {
	return "rpm_updaterecord"
}

func (*UpdateRecord) PulpType() string {
	return AdvisoryPulpType
}

func (u *UpdateRecord) NaturalKey() map[string]any {
	return map[string]any{"id": u.AdvisoryID}
}

func (u *UpdateRecord) SetContentPtr(id string) {
	u.ContentPtrID = id
}

// UpdateReference mapped from table <rpm_updatereference>.
type UpdateReference struct {
	ID             uint   `gorm:"column:id;primaryKey;autoIncrement"`
	UpdateRecordID string `gorm:"column:update_record_id;size:36;not null;index"`
	Href           string `gorm:"column:href;type:text"`
	RefID          string `gorm:"column:ref_id;size:255"`
	Title          string `gorm:"column:title;type:text"`
	RefType        string `gorm:"column:ref_type;size:64"`
}

func (UpdateReference) TableName() string {
	return "rpm_updatereference"
}

// UpdateCollection mapped from table <rpm_updatecollection>.
type UpdateCollection struct {
	ID             uint                      `gorm:"column:id;primaryKey;autoIncrement"`
	UpdateRecordID string                    `gorm:"column:update_record_id;size:36;not null;index"`
	Name           string                    `gorm:"column:name;size:255"`
	Shortname      string                    `gorm:"column:shortname;size:255"`
	Module         map[string]string         `gorm:"column:module;type:text;serializer:json"`
	Packages       []UpdateCollectionPackage `gorm:"foreignKey:UpdateCollectionID"`
}

func (UpdateCollection) TableName() string {
	return "rpm_updatecollection"
}

// UpdateCollectionPackage mapped from table <rpm_updatecollectionpackage>.
type UpdateCollectionPackage struct {
	ID                 uint   `gorm:"column:id;primaryKey;autoIncrement"`
	UpdateCollectionID uint   `gorm:"column:update_collection_id;not null;index"`
	Name               string `gorm:"column:name;size:255"`
	Epoch              string `gorm:"column:epoch;size:10"`
	Version            string `gorm:"column:version;size:64"`
	Release            string `gorm:"column:release;size:128"`
	Arch               string `gorm:"column:arch;size:32"`
	Src                string `gorm:"column:src;type:text"`
	Filename           string `gorm:"column:filename;type:text"`
	Sum                string `gorm:"column:sum;size:128"`
	SumType            string `gorm:"column:sum_type;size:16"`
	RebootSuggested    bool   `gorm:"column:reboot_suggested;not null"`
}

func (UpdateCollectionPackage) TableName() string {
	return "rpm_updatecollectionpackage"
}
