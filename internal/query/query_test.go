package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllRecent(t *testing.T) {
	q := AllRecent()
	assert.Empty(t, q.Decorator)
	assert.Empty(t, q.Args)
	assert.Equal(t, "ORDER BY i.created_at DESC, i.id DESC", q.OrderClause())
}

func TestByAlbumOrdersByOrderKey(t *testing.T) {
	q := ByAlbum("A1")
	assert.Equal(t, []any{"A1"}, q.Args)
	assert.Equal(t, "ORDER BY ai.order_key ASC", q.OrderClause())
	assert.Contains(t, q.Decorator, "album_images")
}

func TestByPluginByDateByTask(t *testing.T) {
	assert.Equal(t, []any{"p1"}, ByPlugin("p1").Args)
	assert.Equal(t, []any{"2026-03"}, ByDate("2026-03").Args)
	assert.Equal(t, []any{"t1"}, ByTask("t1").Args)
}

func TestSelectFromComposesDecoratorAndOrder(t *testing.T) {
	stmt := ByPlugin("p1").SelectFrom("i.id, i.path")
	assert.Equal(t, "SELECT i.id, i.path FROM images i WHERE i.plugin_id = ? ORDER BY i.created_at DESC, i.id DESC", stmt)
}
