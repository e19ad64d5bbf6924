package service

import (
	"bitsconnect/internal/media"
	"bitsconnect/internal/models"
)

// MediaSelection accumulates composer attachments across several picker
// events. Items are identified by file name and capped at MaxPostMedia.
type MediaSelection struct {
	items []media.Upload
}

// NewMediaSelection creates an empty selection.
func NewMediaSelection() *MediaSelection {
	return &MediaSelection{}
}

// Add appends items whose name is not selected yet, keeping the first
// MaxPostMedia.
func (s *MediaSelection) Add(items ...media.Upload) {
	for _, it := range items {
		if len(s.items) >= models.MaxPostMedia {
			return
		}
		if s.indexOf(it.Name) >= 0 {
			continue
		}
		s.items = append(s.items, it)
	}
}

// Remove drops the item with the given name.
func (s *MediaSelection) Remove(name string) {
	if i := s.indexOf(name); i >= 0 {
		s.items = append(s.items[:i], s.items[i+1:]...)
	}
}

// Items returns the selection in pick order.
func (s *MediaSelection) Items() []media.Upload {
	return append([]media.Upload(nil), s.items...)
}

// Len is the number of selected items.
func (s *MediaSelection) Len() int { return len(s.items) }

// Reset clears the selection, as after a post is published.
func (s *MediaSelection) Reset() { s.items = nil }

func (s *MediaSelection) indexOf(name string) int {
	for i, it := range s.items {
		if it.Name == name {
			return i
		}
	}
	return -1
}
