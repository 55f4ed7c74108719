package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCatalogAction(t *testing.T) {
	tests := []struct {
		name   string
		locale string
		table  string
		op     Op
		label  string
		want   string
	}{
		{"english dish", "en", "dishes", OpCreate, "Mapo Tofu", "created dish «Mapo Tofu»"},
		{"english soft delete", "en", "dishes", OpDelete, "Mapo Tofu", "took dish «Mapo Tofu» off the menu"},
		{"english order", "en", "orders", OpDelete, "#4", "deleted order #4"},
		{"chinese dish", "zh", "dishes", OpCreate, "麻婆豆腐", "创造了新菜《麻婆豆腐》"},
		{"locale is case-insensitive", "ZH", "order_items", OpCreate, "饺子", "点了《饺子》"},
		{"unknown locale falls back", "fr", "users", OpUpdate, "mom", "updated user «mom»"},
		{"unknown table", "en", "pantry", OpUpdate, "salt", "update pantry salt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewCatalog(tt.locale).Action(tt.table, tt.op, tt.label))
		})
	}
}

func TestUnknownDish(t *testing.T) {
	assert.Equal(t, "unknown dish", NewCatalog("en").UnknownDish())
	assert.Equal(t, "未知菜品", NewCatalog("zh").UnknownDish())
}
