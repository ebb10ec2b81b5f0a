package bank

// Note maps one grid button to a sample. Control buttons use an empty Path.
type Note struct {
	ID    uint8
	Path  string
	Color uint8
}

// Page is one screen of the grid: an ordered set of notes with unique ids.
type Page struct {
	notes []Note
}

// NewPage builds a page from notes. Callers guarantee unique ids; the loader
// rejects duplicates before calling it.
func NewPage(notes []Note) Page {
	return Page{notes: append([]Note(nil), notes...)}
}

// Notes returns a copy of the page's notes in file order.
func (p Page) Notes() []Note {
	return append([]Note(nil), p.notes...)
}

// Len returns the number of notes on the page.
func (p Page) Len() int {
	return len(p.notes)
}

// Lookup finds a note by id.
func (p Page) Lookup(id uint8) (Note, bool) {
	for _, n := range p.notes {
		if n.ID == id {
			return n, true
		}
	}
	return Note{}, false
}

// Bookmark identifies a bookmark slot (0-based) or NoBookmark.
type Bookmark int

const NoBookmark Bookmark = -1

// Bank owns the loaded pages, the current page index and the active bookmark.
// It is not safe for concurrent use; a single goroutine owns it.
type Bank struct {
	pages    []Page
	current  int
	bookmark Bookmark
}

// New returns an empty bank with no bookmark selected.
func New() *Bank {
	return &Bank{bookmark: NoBookmark}
}

// Load replaces every page with the contents of dir and resets the index to
// the first page. On error the bank is left untouched.
func (b *Bank) Load(dir string) error {
	pages, err := ReadDir(dir)
	if err != nil {
		return err
	}
	b.pages = pages
	b.current = 0
	return nil
}

// CurrentPage returns the selected page, or an empty page before any load.
func (b *Bank) CurrentPage() Page {
	if len(b.pages) == 0 {
		return Page{}
	}
	return b.pages[b.current]
}

func (b *Bank) PageCount() int { return len(b.pages) }

func (b *Bank) PageIndex() int { return b.current }

// First moves to the first page. It reports false if nothing changed.
func (b *Bank) First() bool {
	return b.goTo(0)
}

// Last moves to the last page. It reports false if nothing changed.
func (b *Bank) Last() bool {
	return b.goTo(len(b.pages) - 1)
}

// Previous moves one page back, stopping at the first page.
func (b *Bank) Previous() bool {
	return b.goTo(b.current - 1)
}

// Next moves one page forward, stopping at the last page.
func (b *Bank) Next() bool {
	return b.goTo(b.current + 1)
}

func (b *Bank) goTo(index int) bool {
	if len(b.pages) == 0 {
		return false
	}
	if index < 0 {
		index = 0
	}
	if index > len(b.pages)-1 {
		index = len(b.pages) - 1
	}
	if index == b.current {
		return false
	}
	b.current = index
	return true
}

func (b *Bank) SetBookmark(m Bookmark) { b.bookmark = m }

func (b *Bank) CurrentBookmark() Bookmark { return b.bookmark }

func (b *Bank) IsCurrentBookmark(m Bookmark) bool { return b.bookmark == m }

// LookupNote searches the current page only.
func (b *Bank) LookupNote(id uint8) (Note, bool) {
	return b.CurrentPage().Lookup(id)
}
