package model

type Category struct {
	BaseModel
	ParentID *string `db:"parent_id" json:"parent_id"`
	Name     string  `db:"name" json:"name"`
	Slug     string  `db:"slug" json:"slug"`
	Leaf     bool    `db:"leaf" json:"leaf"`
	IsActive bool    `db:"is_active" json:"is_active"`
}

type Brand struct {
	BaseModel
	Name string  `db:"name" json:"name"`
	Slug string  `db:"slug" json:"slug"`
	Logo *string `db:"logo" json:"logo"`
}
