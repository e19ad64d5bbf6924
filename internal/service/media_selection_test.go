package service

import (
	"fmt"
	"testing"

	"bitsconnect/internal/media"
	"bitsconnect/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestMediaSelection_AccumulatesAcrossPicks(t *testing.T) {
	sel := NewMediaSelection()

	sel.Add(media.Upload{Name: "a.png"}, media.Upload{Name: "b.png"})
	sel.Add(media.Upload{Name: "b.png"}, media.Upload{Name: "c.mp4"})

	assert.Equal(t, 3, sel.Len())
	names := []string{}
	for _, it := range sel.Items() {
		names = append(names, it.Name)
	}
	assert.Equal(t, []string{"a.png", "b.png", "c.mp4"}, names)

	sel.Remove("b.png")
	sel.Remove("missing")
	assert.Equal(t, 2, sel.Len())

	sel.Reset()
	assert.Zero(t, sel.Len())
}

func TestMediaSelection_CapsAtMax(t *testing.T) {
	sel := NewMediaSelection()
	for i := 0; i < 5; i++ {
		sel.Add(media.Upload{Name: fmt.Sprintf("first-%d", i)})
	}
	for i := 0; i < 5; i++ {
		sel.Add(media.Upload{Name: fmt.Sprintf("second-%d", i)})
	}

	items := sel.Items()
	assert.Len(t, items, models.MaxPostMedia)
	assert.Equal(t, "second-2", items[len(items)-1].Name)
}
