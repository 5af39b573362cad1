package models

import "time"

// ProjectInfo is a node in the project tree: a root project, or a menu/page
// beneath it. Path is the materialized ancestor chain ("/Acme/Billing/Invoices")
// and must stay derivable from walking ParentID; the projtree package owns
// keeping it consistent. Order controls sibling display sequence.
type ProjectInfo struct {
	ID        uint    `gorm:"primaryKey;autoIncrement"`
	Name      string  `gorm:"size:128;not null"`
	ShortName string  `gorm:"size:32"` // root nodes only
	NodeType  string  `gorm:"size:20;not null"`
	ParentID  *uint   `gorm:"index"`
	Path      string  `gorm:"size:512;index"`
	Order     int     `gorm:"column:order_num;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Parent   *ProjectInfo  `gorm:"foreignKey:ParentID"`
	Children []ProjectInfo `gorm:"foreignKey:ParentID"`
}
