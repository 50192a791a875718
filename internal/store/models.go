package store

import "time"

// ResourceRow is the gorm row backing docmodel.Resource.
type ResourceRow struct {
	ResourceID string `gorm:"primaryKey;column:resource_id"`
	TenantID   string `gorm:"column:tenant_id;not null;index:idx_resources_tenant"`
	FileID     string `gorm:"column:file_id"`

	FileName  string    `gorm:"column:file_name;not null"`
	MimeType  string    `gorm:"column:mime_type;not null"`
	FileType  string    `gorm:"column:file_type;not null"`
	SizeBytes int64     `gorm:"column:size_bytes"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`

	Summary            string       `gorm:"column:summary"`
	TechnicalMetadata  StringMap    `gorm:"column:technical_metadata;type:jsonb"`
	Tags               StringSlice  `gorm:"column:tags;type:jsonb"`
	Vendor             string       `gorm:"column:vendor"`
	Entities           StringSlice  `gorm:"column:entities;type:jsonb"`
	Keywords           StringSlice  `gorm:"column:keywords;type:jsonb"`
	AmountsCents       Int64Slice   `gorm:"column:amounts_cents;type:jsonb"`
	Currency           string       `gorm:"column:currency"`
	Dates              TimeSlice    `gorm:"column:dates;type:jsonb"`
	Content            string       `gorm:"column:content"`
	DocumentEmbedding  Float32Slice `gorm:"column:document_embedding;type:jsonb"`
}

func (ResourceRow) TableName() string { return "resources" }

// ChunkRow is the gorm row backing docmodel.Chunk.
type ChunkRow struct {
	ChunkID          string `gorm:"primaryKey;column:chunk_id"`
	ParentResourceID string `gorm:"column:parent_resource_id;not null;index:idx_chunks_resource"`
	TenantID         string `gorm:"column:tenant_id;not null;index:idx_chunks_tenant"`
	ChunkIndex       int    `gorm:"column:chunk_index;not null"`
	CharStart        int    `gorm:"column:char_start"`
	CharEnd          int    `gorm:"column:char_end"`

	Text              string       `gorm:"column:text"`
	TextNormalized    string       `gorm:"column:text_normalized"`
	OCRText           string       `gorm:"column:ocr_text"`
	OCRTextNormalized string       `gorm:"column:ocr_text_normalized"`
	ImageDescription  string       `gorm:"column:image_description"`
	SearchableText    string       `gorm:"column:searchable_text"`
	PageNumber        *int         `gorm:"column:page_number"`
	RowIndex          *int         `gorm:"column:row_index"`
	ChunkEmbedding    Float32Slice `gorm:"column:chunk_embedding;type:jsonb"`
}

func (ChunkRow) TableName() string { return "chunks" }

// CategoryRow is the gorm row backing docmodel.Category.
type CategoryRow struct {
	TenantID            string      `gorm:"primaryKey;column:tenant_id"`
	CategoryType        string      `gorm:"primaryKey;column:category_type"`
	Entities            StringSlice `gorm:"column:entities;type:jsonb"`
	IgnoredWords        StringSlice `gorm:"column:ignored_words;type:jsonb"`
	TriggerKeywords     StringSlice `gorm:"column:trigger_keywords;type:jsonb"`
	MaxNonCategoryWords int         `gorm:"column:max_non_category_words"`
	MatchScore          float64     `gorm:"column:match_score"`
	Enabled             bool        `gorm:"column:enabled"`
}

func (CategoryRow) TableName() string { return "categories" }

// AuditEntryRow records one audit-log entry: every write and every
// cross-tenant admin access lands here.
type AuditEntryRow struct {
	ID        uint      `gorm:"primaryKey;autoIncrement;column:id"`
	TenantID  string    `gorm:"column:tenant_id;not null;index:idx_audit_tenant"`
	CallerID  string    `gorm:"column:caller_id"`
	Action    string    `gorm:"column:action;not null"`
	TargetID  string    `gorm:"column:target_id"`
	Timestamp time.Time `gorm:"column:timestamp;not null"`
}

func (AuditEntryRow) TableName() string { return "audit_entries" }
