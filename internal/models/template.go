package models

import (
	"time"

	"gorm.io/gorm"
)

// Category groups a placeholder by the kind of data it asks for. Values
// mirror the sections of a Brazilian legal petition.
type Category string

const (
	CategoryCliente       Category = "cliente"
	CategoryEndereco      Category = "endereco"
	CategoryProcesso      Category = "processo"
	CategoryAutorDados    Category = "autor_dados"
	CategoryAutorEndereco Category = "autor_endereco"
	CategoryPoloAtivo     Category = "polo_ativo"
	CategoryPoloPassivo   Category = "polo_passivo"
	CategoryTerceiros     Category = "terceiros"
	CategoryAutoridades   Category = "autoridades"
	CategoryOutros        Category = "outros"
)

// FieldType is the HTML input type a placeholder renders as.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldEmail    FieldType = "email"
	FieldTel      FieldType = "tel"
	FieldDate     FieldType = "date"
	FieldTextarea FieldType = "textarea"
	FieldSelect   FieldType = "select"
)

// Template pairs a source Google Docs document with the Drive folder its
// generated copies land in. PlaceholderCount and PersonaCount are derived
// and refreshed on every sync.
type Template struct {
	ID                  string         `gorm:"primaryKey" json:"id"`
	Name                string         `gorm:"not null" json:"name"`
	SourceDocumentID    string         `gorm:"not null" json:"source_document_id"`
	DestinationFolderID string         `json:"destination_folder_id"`
	Active              bool           `gorm:"default:true" json:"active"`
	PlaceholderCount    int            `json:"placeholder_count"`
	PersonaCount        int            `json:"persona_count"`
	LastSyncTime        *time.Time     `json:"last_sync_time,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Placeholders []Placeholder   `gorm:"foreignKey:TemplateID" json:"placeholders,omitempty"`
	Forms        []GeneratedForm `gorm:"foreignKey:TemplateID" json:"forms,omitempty"`
}

// Placeholder is the durable representation of one {{key}} token in a
// template body. Unique per (template_id, key).
type Placeholder struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	TemplateID string    `gorm:"not null;index;uniqueIndex:idx_placeholders_template_key" json:"template_id"`
	Key        string    `gorm:"not null;uniqueIndex:idx_placeholders_template_key" json:"key"`
	Category   Category  `gorm:"type:varchar(30)" json:"category"`
	FieldType  FieldType `gorm:"type:varchar(20)" json:"field_type"`
	Label      string    `json:"label"`
	Required   bool      `gorm:"default:false" json:"required"`
	Order      int       `gorm:"column:field_order" json:"order"`
	Options    string    `gorm:"type:json" json:"options,omitempty"` // JSON array for select fields
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// GeneratedForm is a named, shareable instantiation of a template's form.
// The slug is the external bookmarkable identifier and never changes.
type GeneratedForm struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	TemplateID string    `gorm:"not null;index" json:"template_id"`
	Name       string    `gorm:"not null" json:"name"`
	Slug       string    `gorm:"not null;uniqueIndex" json:"slug"`
	CreatedAt  time.Time `json:"created_at"`

	Template Template `gorm:"foreignKey:TemplateID" json:"template,omitempty"`
}
