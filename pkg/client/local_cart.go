package client

// LocalCart is an offline cart with the server's semantics: Add is the only
// action that creates a line and Dec at quantity 1 removes it. New lines go
// first, matching the server's newest-first order.
type LocalCart struct {
	items []Item
}

func (l *LocalCart) index(id string) int {
	for i, it := range l.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func (l *LocalCart) Add(id, title string) {
	if i := l.index(id); i >= 0 {
		l.items[i].Qty++
		return
	}
	l.items = append([]Item{{ID: id, Title: title, Qty: 1}}, l.items...)
}

// Inc reports whether a line was found.
func (l *LocalCart) Inc(id string) bool {
	i := l.index(id)
	if i < 0 {
		return false
	}
	l.items[i].Qty++
	return true
}

// Dec reports whether a line was found.
func (l *LocalCart) Dec(id string) bool {
	i := l.index(id)
	if i < 0 {
		return false
	}
	if l.items[i].Qty <= 1 {
		l.Remove(id)
		return true
	}
	l.items[i].Qty--
	return true
}

func (l *LocalCart) Remove(id string) {
	if i := l.index(id); i >= 0 {
		l.items = append(l.items[:i], l.items[i+1:]...)
	}
}

func (l *LocalCart) Clear() { l.items = nil }

func (l *LocalCart) Items() []Item { return append([]Item(nil), l.items...) }

func (l *LocalCart) Count() int {
	n := 0
	for _, it := range l.items {
		n += it.Qty
	}
	return n
}
