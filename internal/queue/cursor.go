package queue

import "github.com/five82/pawswipe/internal/storage"

// Cursor records where the user is in the queue for the active filters.
type Cursor struct {
	Query  string `json:"query"`
	Offset int    `json:"offset"`
	Index  int    `json:"index"`
}

// LoadCursor reads the persisted cursor.
func LoadCursor(kv *storage.Store) (Cursor, bool) {
	var c Cursor
	if kv == nil || !kv.GetJSON(storage.KeyCursor, &c) {
		return Cursor{}, false
	}
	return c, true
}

func (m *Manager) cursorLocked() Cursor {
	return Cursor{
		Query:  m.filters.QueryString(),
		Offset: m.offset,
		Index:  m.index,
	}
}

func (m *Manager) saveCursor(c Cursor) {
	if m.kv == nil {
		return
	}
	m.kv.SetJSON(storage.KeyCursor, c)
}
