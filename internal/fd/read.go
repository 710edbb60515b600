package fd

import (
	"fmt"
)

// ReadMode selects how Read slices a FileDescriptor's content.
type ReadMode string

const (
	ModePage ReadMode = "page"
	ModeLine ReadMode = "line"
	ModeChar ReadMode = "char"
	ModeAll  ReadMode = "all"
)

// ReadOptions parameterizes Manager.Read. Zero value reads page 1.
type ReadOptions struct {
	Mode ReadMode

	// Page is 1-indexed, used when Mode == ModePage (default mode).
	Page int

	// StartLine/EndLine are 1-indexed, inclusive, used when Mode == ModeLine.
	StartLine int
	EndLine   int

	// StartChar/EndChar are 0-indexed, EndChar exclusive, used when
	// Mode == ModeChar.
	StartChar int
	EndChar   int

	// ExtractToNewFD, if non-empty, stores the read slice as a new FD under
	// the given reference label instead of (or in addition to) returning it
	// inline; see Manager.Read's extract_to_new_fd behavior.
	ExtractToNewFD string
}

// ReadResult is the outcome of a Read call.
type ReadResult struct {
	Data       string
	StartLine  int
	EndLine    int
	Truncated  bool // true if Data does not reach the end of the FD's content
	TotalPages int
	TotalLines int

	// Continued is true when Data starts mid-line rather than at a line
	// boundary: continued = start_char > line_starts[start_line-1] (spec
	// §4.1 step 2). Line-range and whole-content reads always start on a
	// line boundary, so this is only ever true for page/char reads.
	Continued bool

	// ExtractedFD is set when ExtractToNewFD was requested: the new FD's id.
	ExtractedFD string
}

// ErrNotFound is returned by Read/WriteToFile when the requested FD id does
// not exist.
type ErrNotFound struct{ ID string }

func (e *ErrNotFound) Error() string { return fmt.Sprintf("fd: not found: %s", e.ID) }

// ErrInvalidRange is returned when a page/line/char range lies outside the
// FD's content.
type ErrInvalidRange struct {
	ID     string
	Detail string
}

func (e *ErrInvalidRange) Error() string {
	return fmt.Sprintf("fd: invalid range for %s: %s", e.ID, e.Detail)
}

// Read slices the FD identified by id per opts, and honors extract_to_new_fd
// (P3): when opts.ExtractToNewFD is set, the sliced content is stored as a
// new reference FD and its id returned in ExtractedFD, independent of the
// inline Data returned.
func (m *Manager) Read(id string, opts ReadOptions) (ReadResult, error) {
	m.mu.Lock()
	f, ok := m.fds[id]
	m.mu.Unlock()
	if !ok {
		return ReadResult{}, &ErrNotFound{ID: id}
	}

	var res ReadResult
	var err error
	switch opts.Mode {
	case ModeLine:
		res, err = m.readLines(f, opts.StartLine, opts.EndLine)
	case ModeChar:
		res, err = m.readChars(f, opts.StartChar, opts.EndChar)
	case ModeAll:
		res = m.readAll(f)
	default:
		page := opts.Page
		if page == 0 {
			page = 1
		}
		res, err = m.readPage(f, page, id)
	}
	if err != nil {
		return ReadResult{}, err
	}

	if opts.ExtractToNewFD != "" {
		newID, _ := m.CreateReference(opts.ExtractToNewFD, res.Data)
		res.ExtractedFD = newID
	}
	return res, nil
}

// readPage implements the line-aware pagination algorithm from spec §4.1:
// pages are byte/char windows of PageSize, but the returned StartLine/EndLine
// report the line range the window falls in, and EndLine is marked continued
// (reflected via Truncated) when the page boundary splits a line.
func (m *Manager) readPage(f *FileDescriptor, page int, idForErr string) (ReadResult, error) {
	total := f.TotalPages()
	if page < 1 || page > total {
		return ReadResult{}, &ErrInvalidRange{ID: idForErr, Detail: fmt.Sprintf("page %d out of range [1, %d]", page, total)}
	}
	startChar := (page - 1) * f.PageSize
	endChar := startChar + f.PageSize
	if endChar > len(f.Content) {
		endChar = len(f.Content)
	}
	data := f.Content[startChar:endChar]

	startLine := lineForOffset(f.LineStarts, startChar)
	endLine := lineForOffset(f.LineStarts, maxInt(startChar, endChar-1))

	return ReadResult{
		Data:       data,
		StartLine:  startLine,
		EndLine:    endLine,
		Truncated:  endChar < len(f.Content),
		TotalPages: total,
		TotalLines: f.TotalLines(),
		Continued:  continuedFrom(f.LineStarts, startChar, startLine),
	}, nil
}

func (m *Manager) readLines(f *FileDescriptor, start, end int) (ReadResult, error) {
	total := f.TotalLines()
	if start < 1 || end < start || start > total {
		return ReadResult{}, &ErrInvalidRange{Detail: fmt.Sprintf("line range [%d, %d] invalid for %d total lines", start, end, total)}
	}
	if end > total {
		end = total
	}
	startChar := f.LineStarts[start-1]
	var endChar int
	if end == total {
		endChar = len(f.Content)
	} else {
		endChar = f.LineStarts[end]
	}
	return ReadResult{
		Data:       f.Content[startChar:endChar],
		StartLine:  start,
		EndLine:    end,
		Truncated:  end < total,
		TotalPages: f.TotalPages(),
		TotalLines: total,
	}, nil
}

func (m *Manager) readChars(f *FileDescriptor, start, end int) (ReadResult, error) {
	if start < 0 || end < start || start > len(f.Content) {
		return ReadResult{}, &ErrInvalidRange{Detail: fmt.Sprintf("char range [%d, %d] invalid for %d total chars", start, end, len(f.Content))}
	}
	if end > len(f.Content) {
		end = len(f.Content)
	}
	startLine := lineForOffset(f.LineStarts, start)
	return ReadResult{
		Data:       f.Content[start:end],
		StartLine:  startLine,
		EndLine:    lineForOffset(f.LineStarts, maxInt(start, end-1)),
		Truncated:  end < len(f.Content),
		TotalPages: f.TotalPages(),
		TotalLines: f.TotalLines(),
		Continued:  continuedFrom(f.LineStarts, start, startLine),
	}, nil
}

func (m *Manager) readAll(f *FileDescriptor) ReadResult {
	return ReadResult{
		Data:       f.Content,
		StartLine:  1,
		EndLine:    f.TotalLines(),
		Truncated:  false,
		TotalPages: f.TotalPages(),
		TotalLines: f.TotalLines(),
	}
}

// continuedFrom reports whether a read starting at startChar begins after
// the first character of its containing line (spec §4.1 step 2), i.e. the
// read picks up mid-line rather than at a line boundary.
func continuedFrom(lineStarts []int, startChar, startLine int) bool {
	return startChar > lineStarts[startLine-1]
}

// lineForOffset returns the 1-indexed line number containing char offset off.
func lineForOffset(lineStarts []int, off int) int {
	lo, hi := 0, len(lineStarts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if lineStarts[mid] <= off {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo + 1
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
