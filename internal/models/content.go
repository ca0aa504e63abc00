package models

import (
	"gorm.io/datatypes"

	"github.com/example/vitrina/internal/i18n"
)

// Showcase is the shape shared by storefront content blocks.
type Showcase struct {
	BaseModel
	Title       datatypes.JSONType[i18n.Text] `json:"translations_title"`
	Description datatypes.JSONType[i18n.Text] `json:"translations_description"`
	Image       string                        `json:"image"`
	Link        string                        `gorm:"size:512" json:"link"`
}

// Banner is a storefront promotion slot.
type Banner struct {
	Showcase
}

// Partner is a partner brand shown on the storefront.
type Partner struct {
	Showcase
}

// Advertisement is a paid placement.
type Advertisement struct {
	Showcase
}

// Blog is a translatable article.
type Blog struct {
	BaseModel
	Title   datatypes.JSONType[i18n.Text] `json:"translations_title"`
	Content datatypes.JSONType[i18n.Text] `json:"translations_content"`
	Image   string                        `json:"image"`
	Link    string                        `gorm:"size:512" json:"link"`
}
