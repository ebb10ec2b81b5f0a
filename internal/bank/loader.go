package bank

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

var (
	ErrNotFound  = errors.New("sample bank not found")
	ErrMalformed = errors.New("malformed sample bank line")
	ErrEmpty     = errors.New("sample bank has no pages")
)

// ReadDir parses every regular file of dir into a Page. Files are read in
// name order so the page order does not depend on the filesystem.
// Hidden files (leading dot) are skipped.
func ReadDir(dir string) ([]Page, error) {
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && !info.IsDir()) {
		return nil, fault.Wrap(ErrNotFound,
			fmsg.WithDesc(dir, fmt.Sprintf("The sample folder %q does not exist.", dir)),
			ftag.With(ftag.NotFound))
	}
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("stat sample bank"), ftag.With(ftag.Internal))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("read sample bank"), ftag.With(ftag.Internal))
	}

	var pages []Page
	for _, entry := range entries {
		if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		page, err := readPage(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}

	if len(pages) == 0 {
		return nil, fault.Wrap(ErrEmpty,
			fmsg.WithDesc(dir, fmt.Sprintf("No page files found in %q.", dir)),
			ftag.With(ftag.NotFound))
	}
	return pages, nil
}

func readPage(path string) (Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return Page{}, fault.Wrap(err, fmsg.With("open page file"), ftag.With(ftag.Internal))
	}
	defer f.Close()

	var notes []Note
	seen := make(map[uint8]int)

	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		note, err := ParseLine(line)
		if err != nil {
			return Page{}, fault.Wrap(err,
				fmsg.WithDesc(fmt.Sprintf("%s:%d", path, lineNum),
					fmt.Sprintf("Line %d of %s is not \"note;path;color\".", lineNum, filepath.Base(path))))
		}
		if first, dup := seen[note.ID]; dup {
			return Page{}, fault.Wrap(ErrMalformed,
				fmsg.WithDesc(fmt.Sprintf("%s:%d: note %d already defined on line %d", path, lineNum, note.ID, first),
					fmt.Sprintf("Note %d is defined twice in %s.", note.ID, filepath.Base(path))),
				ftag.With(ftag.InvalidArgument))
		}
		seen[note.ID] = lineNum
		notes = append(notes, note)
	}
	if err := scanner.Err(); err != nil {
		return Page{}, fault.Wrap(err, fmsg.With("read page file"), ftag.With(ftag.Internal))
	}

	return NewPage(notes), nil
}

// ParseLine decodes "note_id;sample_path;color". The path is everything
// between the first and the last separator, so it may itself contain ';'.
func ParseLine(line string) (Note, error) {
	first := strings.Index(line, ";")
	last := strings.LastIndex(line, ";")
	if first < 0 || first == last {
		return Note{}, malformed("expected 3 fields in %q", line)
	}

	id, err := parseByte(line[:first])
	if err != nil {
		return Note{}, malformed("note id in %q: %v", line, err)
	}
	color, err := parseByte(line[last+1:])
	if err != nil {
		return Note{}, malformed("color in %q: %v", line, err)
	}

	return Note{
		ID:    id,
		Path:  strings.TrimSpace(line[first+1 : last]),
		Color: color,
	}, nil
}

func parseByte(s string) (uint8, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 8)
	if err != nil {
		return 0, err
	}
	return uint8(v), nil
}

func malformed(format string, args ...any) error {
	return fault.Wrap(ErrMalformed, fmsg.With(fmt.Sprintf(format, args...)), ftag.With(ftag.InvalidArgument))
}
