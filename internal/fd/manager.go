// Package fd implements the file-descriptor manager: a content-addressed
// store for oversized tool/user content with line-aware pagination,
// extract-to-new-fd operations, and file export. See spec §4.1.
package fd

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Source identifies how a FileDescriptor's content was produced.
type Source string

const (
	SourceToolResult Source = "tool_result"
	SourceUserInput  Source = "user_input"
	SourceReference  Source = "reference"
	SourceExtract    Source = "extract"
)

// FileDescriptor is an immutable blob of content addressed by ID, with
// precomputed line-start offsets for pagination.
type FileDescriptor struct {
	ID         string
	Content    string
	LineStarts []int // LineStarts[0] == 0, monotonically increasing.
	PageSize   int
	Source     Source
	CreatedAt  time.Time
}

// TotalPages returns ceil(len(Content)/PageSize), or 1 if Content is empty.
func (f *FileDescriptor) TotalPages() int {
	if len(f.Content) == 0 {
		return 1
	}
	return (len(f.Content) + f.PageSize - 1) / f.PageSize
}

// TotalLines returns the number of lines in Content.
func (f *FileDescriptor) TotalLines() int {
	return len(f.LineStarts)
}

func computeLineStarts(content string) []int {
	starts := []int{0}
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' && i+1 < len(content) {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// Config configures a Manager's defaults. See spec §4.1.
type Config struct {
	// PageSize is the default page size in characters. Default 4000.
	PageSize int

	// MaxDirectOutputChars is the threshold above which tool results are
	// auto-wrapped into an FD. Default 8000.
	MaxDirectOutputChars int

	// MaxInputChars bounds user-input auto-wrap; 0 means no explicit cap
	// beyond MaxDirectOutputChars.
	MaxInputChars int

	// PageUserInput enables auto-wrap of oversized user input.
	PageUserInput bool

	// FDRelatedToolNames are tool names excluded from auto-wrap to avoid
	// wrapping an FD tool's own output recursively.
	FDRelatedToolNames map[string]bool
}

// DefaultConfig returns the spec's default FD manager configuration.
func DefaultConfig() Config {
	return Config{
		PageSize:             4000,
		MaxDirectOutputChars: 8000,
		PageUserInput:        false,
		FDRelatedToolNames: map[string]bool{
			"read_fd":    true,
			"fd_to_file": true,
		},
	}
}

// Manager is the exclusive, per-Process file-descriptor store.
type Manager struct {
	mu     sync.Mutex
	cfg    Config
	fds    map[string]*FileDescriptor
	nextID int
}

// New creates an empty Manager with the given configuration. A zero Config
// is filled in with DefaultConfig's values for any zero field.
func New(cfg Config) *Manager {
	def := DefaultConfig()
	if cfg.PageSize <= 0 {
		cfg.PageSize = def.PageSize
	}
	if cfg.MaxDirectOutputChars <= 0 {
		cfg.MaxDirectOutputChars = def.MaxDirectOutputChars
	}
	if cfg.FDRelatedToolNames == nil {
		cfg.FDRelatedToolNames = def.FDRelatedToolNames
	}
	return &Manager{cfg: cfg, fds: make(map[string]*FileDescriptor)}
}

// Config returns the manager's configuration.
func (m *Manager) Config() Config {
	return m.cfg
}

// Create allocates the next sequential fd:N id and stores content under it.
// Content is never mutated after creation.
func (m *Manager) Create(content string, source Source) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := fmt.Sprintf("fd:%d", m.nextID)
	m.fds[id] = &FileDescriptor{
		ID:         id,
		Content:    content,
		LineStarts: computeLineStarts(content),
		PageSize:   m.cfg.PageSize,
		Source:     source,
		CreatedAt:  time.Now(),
	}
	return id
}

// CreateReference stores content under a user-labeled ref:<label> id. If the
// label already exists, the prior content is discarded (last-write-wins) and
// collided is reported true so the caller can log a warning.
func (m *Manager) CreateReference(label, content string) (id string, collided bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id = "ref:" + label
	_, collided = m.fds[id]
	m.fds[id] = &FileDescriptor{
		ID:         id,
		Content:    content,
		LineStarts: computeLineStarts(content),
		PageSize:   m.cfg.PageSize,
		Source:     SourceReference,
		CreatedAt:  time.Now(),
	}
	return id, collided
}

// Get returns the FileDescriptor for id, or (nil, false) if not found. The
// returned value must be treated as read-only by callers.
func (m *Manager) Get(id string) (*FileDescriptor, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.fds[id]
	return f, ok
}

// Len reports how many file descriptors are currently stored.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.fds)
}

// IsFDRelatedTool reports whether name is excluded from auto-wrap.
func (m *Manager) IsFDRelatedTool(name string) bool {
	return m.cfg.FDRelatedToolNames[name]
}

// MaybeWrapToolResult implements the auto-wrap policy from spec §4.1: if
// toolName is not FD-related and content exceeds MaxDirectOutputChars, the
// content is stored in a new FD and a structured preview is returned instead.
// ok is false when no wrapping occurred (caller should use content as-is).
func (m *Manager) MaybeWrapToolResult(toolName, content string) (preview string, ok bool) {
	if m.cfg.FDRelatedToolNames[toolName] {
		return "", false
	}
	if len(content) <= m.cfg.MaxDirectOutputChars {
		return "", false
	}
	id := m.Create(content, SourceToolResult)
	f, _ := m.Get(id)
	firstPage, _ := m.readPage(f, 1, "")
	return renderFDResult(id, f.TotalPages(), false, 1, firstPage.StartLine, firstPage.EndLine, f.TotalLines(), firstPage.Data), true
}

// MaybeWrapUserInput applies the symmetric auto-wrap policy to user input
// when PageUserInput is enabled.
func (m *Manager) MaybeWrapUserInput(content string) (preview string, ok bool) {
	if !m.cfg.PageUserInput {
		return "", false
	}
	limit := m.cfg.MaxInputChars
	if limit <= 0 {
		limit = m.cfg.MaxDirectOutputChars
	}
	if len(content) <= limit {
		return "", false
	}
	id := m.Create(content, SourceUserInput)
	f, _ := m.Get(id)
	firstPage, _ := m.readPage(f, 1, "")
	return renderFDResult(id, f.TotalPages(), false, 1, firstPage.StartLine, firstPage.EndLine, f.TotalLines(), firstPage.Data), true
}

func renderFDResult(id string, pages int, truncated bool, page, startLine, endLine, totalLines int, preview string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<fd_result fd=%q pages=\"%d\" truncated=\"%t\" lines=\"%d-%d\" total_lines=\"%d\">\n",
		id, pages, truncated, startLine, endLine, totalLines)
	b.WriteString("  <message>content exceeded inline size limit; stored as file descriptor " + id + "</message>\n")
	b.WriteString("  <preview>")
	b.WriteString(preview)
	b.WriteString("</preview>\n</fd_result>")
	return b.String()
}

// ExtractReferences scans assistant text for <ref id="LABEL">...</ref> blocks
// and stores each as a reference FD. The original text is returned unchanged;
// only the side effect of storing references matters to the caller.
func (m *Manager) ExtractReferences(text string) (labels []string, collisions []string) {
	const openPrefix = `<ref id="`
	rest := text
	for {
		idx := strings.Index(rest, openPrefix)
		if idx < 0 {
			break
		}
		rest = rest[idx+len(openPrefix):]
		end := strings.IndexByte(rest, '"')
		if end < 0 {
			break
		}
		label := rest[:end]
		rest = rest[end+1:]
		closeTag := strings.Index(rest, ">")
		if closeTag < 0 {
			break
		}
		rest = rest[closeTag+1:]
		closeRef := strings.Index(rest, "</ref>")
		if closeRef < 0 {
			break
		}
		inner := rest[:closeRef]
		rest = rest[closeRef+len("</ref>"):]

		_, collided := m.CreateReference(label, inner)
		labels = append(labels, label)
		if collided {
			collisions = append(collisions, label)
		}
	}
	return labels, collisions
}

// DeepCopy produces an independent Manager with all FD contents and metadata
// cloned, used by fork (P4).
func (m *Manager) DeepCopy() *Manager {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := &Manager{
		cfg:    m.cfg,
		fds:    make(map[string]*FileDescriptor, len(m.fds)),
		nextID: m.nextID,
	}
	for id, f := range m.fds {
		lineStarts := make([]int, len(f.LineStarts))
		copy(lineStarts, f.LineStarts)
		cp.fds[id] = &FileDescriptor{
			ID:         f.ID,
			Content:    f.Content,
			LineStarts: lineStarts,
			PageSize:   f.PageSize,
			Source:     f.Source,
			CreatedAt:  f.CreatedAt,
		}
	}
	return cp
}

// parseAutoFDNumber extracts N from an "fd:N" id, or -1 if id isn't that
// shape (e.g. a ref: id).
func parseAutoFDNumber(id string) int {
	if !strings.HasPrefix(id, "fd:") {
		return -1
	}
	n, err := strconv.Atoi(strings.TrimPrefix(id, "fd:"))
	if err != nil {
		return -1
	}
	return n
}
