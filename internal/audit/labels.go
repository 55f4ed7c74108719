package audit

import (
	"strings"
)

// Op is the kind of mutation an audit entry records.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

type labelKey struct {
	table string
	op    Op
}

// Catalog maps (table, operation) pairs to action message templates.
// "{name}" in a template is replaced by the record's display name.
type Catalog struct {
	templates   map[labelKey]string
	unknownDish string
}

var catalogs = map[string]*Catalog{
	"en": {
		templates: map[labelKey]string{
			{"users", OpCreate}:       "created user «{name}»",
			{"users", OpUpdate}:       "updated user «{name}»",
			{"users", OpDelete}:       "deleted user «{name}»",
			{"dishes", OpCreate}:      "created dish «{name}»",
			{"dishes", OpUpdate}:      "updated dish «{name}»",
			{"dishes", OpDelete}:      "took dish «{name}» off the menu",
			{"orders", OpCreate}:      "created order {name}",
			{"orders", OpUpdate}:      "updated order {name}",
			{"orders", OpDelete}:      "deleted order {name}",
			{"order_items", OpCreate}: "ordered «{name}»",
			{"order_items", OpUpdate}: "changed «{name}»",
			{"order_items", OpDelete}: "cancelled «{name}»",
		},
		unknownDish: "unknown dish",
	},
	"zh": {
		templates: map[labelKey]string{
			{"users", OpCreate}:       "创建用户《{name}》",
			{"users", OpUpdate}:       "更新用户《{name}》",
			{"users", OpDelete}:       "删除用户《{name}》",
			{"dishes", OpCreate}:      "创造了新菜《{name}》",
			{"dishes", OpUpdate}:      "修改了菜品《{name}》",
			{"dishes", OpDelete}:      "下架了菜品《{name}》",
			{"orders", OpCreate}:      "创建订单 {name}",
			{"orders", OpUpdate}:      "更新订单 {name}",
			{"orders", OpDelete}:      "删除订单 {name}",
			{"order_items", OpCreate}: "点了《{name}》",
			{"order_items", OpUpdate}: "修改了《{name}》",
			{"order_items", OpDelete}: "取消了《{name}》",
		},
		unknownDish: "未知菜品",
	},
}

// NewCatalog returns the catalog for locale, falling back to English.
func NewCatalog(locale string) *Catalog {
	if c, ok := catalogs[strings.ToLower(locale)]; ok {
		return c
	}
	return catalogs["en"]
}

// Action renders the action message for a mutation on table.
// Unknown pairs render as "<op> <table> <name>".
func (c *Catalog) Action(table string, op Op, name string) string {
	tmpl, ok := c.templates[labelKey{table, op}]
	if !ok {
		return strings.TrimSpace(string(op) + " " + table + " " + name)
	}
	return strings.ReplaceAll(tmpl, "{name}", name)
}

// UnknownDish is the placeholder recorded when an order item's dish cannot be resolved.
func (c *Catalog) UnknownDish() string {
	return c.unknownDish
}
