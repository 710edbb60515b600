package fd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndGet(t *testing.T) {
	m := New(Config{PageSize: 10})
	id := m.Create("hello world", SourceToolResult)
	assert.Equal(t, "fd:1", id)

	f, ok := m.Get(id)
	require.True(t, ok)
	assert.Equal(t, "hello world", f.Content)

	id2 := m.Create("second", SourceToolResult)
	assert.Equal(t, "fd:2", id2)
}

func TestGetMissing(t *testing.T) {
	m := New(Config{})
	_, ok := m.Get("fd:999")
	assert.False(t, ok)
}

func TestReadPagination(t *testing.T) {
	// 25 chars, page size 10 -> 3 pages.
	content := "0123456789abcdefghijklmno"
	m := New(Config{PageSize: 10})
	id := m.Create(content, SourceToolResult)

	r1, err := m.Read(id, ReadOptions{Mode: ModePage, Page: 1})
	require.NoError(t, err)
	assert.Equal(t, "0123456789", r1.Data)
	assert.True(t, r1.Truncated)
	assert.Equal(t, 3, r1.TotalPages)

	r3, err := m.Read(id, ReadOptions{Mode: ModePage, Page: 3})
	require.NoError(t, err)
	assert.Equal(t, "no", r3.Data)
	assert.False(t, r3.Truncated)

	_, err = m.Read(id, ReadOptions{Mode: ModePage, Page: 4})
	require.Error(t, err)
	var rangeErr *ErrInvalidRange
	assert.ErrorAs(t, err, &rangeErr)
}

func TestReadPageExactMultiple(t *testing.T) {
	content := strings.Repeat("x", 20)
	m := New(Config{PageSize: 10})
	id := m.Create(content, SourceToolResult)
	f, _ := m.Get(id)
	assert.Equal(t, 2, f.TotalPages())

	r2, err := m.Read(id, ReadOptions{Mode: ModePage, Page: 2})
	require.NoError(t, err)
	assert.Equal(t, 10, len(r2.Data))
	assert.False(t, r2.Truncated)
}

func TestReadByLine(t *testing.T) {
	content := "line1\nline2\nline3\n"
	m := New(Config{PageSize: 100})
	id := m.Create(content, SourceToolResult)

	f, _ := m.Get(id)
	assert.Equal(t, 3, f.TotalLines())

	r, err := m.Read(id, ReadOptions{Mode: ModeLine, StartLine: 2, EndLine: 2})
	require.NoError(t, err)
	assert.Equal(t, "line2\n", r.Data)

	_, err = m.Read(id, ReadOptions{Mode: ModeLine, StartLine: 5, EndLine: 5})
	require.Error(t, err)
}

func TestReadByChar(t *testing.T) {
	m := New(Config{PageSize: 100})
	id := m.Create("abcdefghij", SourceToolResult)

	r, err := m.Read(id, ReadOptions{Mode: ModeChar, StartChar: 2, EndChar: 5})
	require.NoError(t, err)
	assert.Equal(t, "cde", r.Data)

	_, err = m.Read(id, ReadOptions{Mode: ModeChar, StartChar: 5, EndChar: 50})
	require.NoError(t, err) // clamps to end
}

func TestExtractToNewFD(t *testing.T) {
	m := New(Config{PageSize: 100})
	id := m.Create("the quick brown fox", SourceToolResult)

	r, err := m.Read(id, ReadOptions{Mode: ModeChar, StartChar: 4, EndChar: 9, ExtractToNewFD: "quick"})
	require.NoError(t, err)
	assert.Equal(t, "quick", r.Data)
	assert.Equal(t, "ref:quick", r.ExtractedFD)

	f, ok := m.Get("ref:quick")
	require.True(t, ok)
	assert.Equal(t, "quick", f.Content)
}

func TestCreateReferenceCollision(t *testing.T) {
	m := New(Config{})
	_, collided := m.CreateReference("notes", "first")
	assert.False(t, collided)

	id, collided := m.CreateReference("notes", "second")
	assert.True(t, collided)
	f, _ := m.Get(id)
	assert.Equal(t, "second", f.Content)
}

func TestMaybeWrapToolResult(t *testing.T) {
	m := New(Config{MaxDirectOutputChars: 20, PageSize: 10})

	short := "small output"
	_, wrapped := m.MaybeWrapToolResult("some_tool", short)
	assert.False(t, wrapped)

	long := strings.Repeat("y", 100)
	preview, wrapped := m.MaybeWrapToolResult("some_tool", long)
	assert.True(t, wrapped)
	assert.Contains(t, preview, "fd:1")
	assert.Contains(t, preview, "<fd_result")
}

func TestMaybeWrapToolResultExactThreshold(t *testing.T) {
	m := New(Config{MaxDirectOutputChars: 20, PageSize: 10})
	exact := strings.Repeat("z", 20)
	_, wrapped := m.MaybeWrapToolResult("some_tool", exact)
	assert.False(t, wrapped, "content exactly at threshold must not be wrapped")

	overThreshold := strings.Repeat("z", 21)
	_, wrapped = m.MaybeWrapToolResult("some_tool", overThreshold)
	assert.True(t, wrapped)
}

func TestMaybeWrapToolResultSkipsFDRelatedTools(t *testing.T) {
	m := New(Config{MaxDirectOutputChars: 5})
	long := strings.Repeat("a", 100)
	_, wrapped := m.MaybeWrapToolResult("read_fd", long)
	assert.False(t, wrapped)
}

func TestExtractReferences(t *testing.T) {
	m := New(Config{})
	text := `Summary: <ref id="plan">do the thing</ref> and also <ref id="risks">none</ref>.`
	labels, collisions := m.ExtractReferences(text)
	assert.Equal(t, []string{"plan", "risks"}, labels)
	assert.Empty(t, collisions)

	f, ok := m.Get("ref:plan")
	require.True(t, ok)
	assert.Equal(t, "do the thing", f.Content)
}

func TestDeepCopyIsolation(t *testing.T) {
	m := New(Config{PageSize: 10})
	id := m.Create("original", SourceToolResult)

	cp := m.DeepCopy()
	cpFD, ok := cp.Get(id)
	require.True(t, ok)
	assert.Equal(t, "original", cpFD.Content)

	// Mutating the original manager after copy must not affect cp.
	m.Create("after copy", SourceToolResult)
	assert.Equal(t, 1, cp.Len())
	assert.Equal(t, 2, m.Len())
}

func TestWriteToFileModes(t *testing.T) {
	dir := t.TempDir()
	m := New(Config{})
	id := m.Create("file contents", SourceToolResult)

	path := dir + "/out.txt"
	err := m.WriteToFile(id, path, WriteToFileOptions{Mode: WriteModeWrite, ExistOK: true})
	require.NoError(t, err)

	err = m.WriteToFile(id, path, WriteToFileOptions{Mode: WriteModeWrite, ExistOK: false})
	require.Error(t, err)
	var existsErr *ErrFileExists
	assert.ErrorAs(t, err, &existsErr)

	err = m.WriteToFile(id, path, WriteToFileOptions{Mode: WriteModeAppend})
	require.NoError(t, err)
}

func TestWriteToFileAppendMissingWithoutCreate(t *testing.T) {
	dir := t.TempDir()
	m := New(Config{})
	id := m.Create("data", SourceToolResult)

	err := m.WriteToFile(id, dir+"/missing.txt", WriteToFileOptions{Mode: WriteModeAppend})
	require.Error(t, err)
	var missingErr *ErrFileMissing
	assert.ErrorAs(t, err, &missingErr)
}

func TestWriteToFileNotFound(t *testing.T) {
	m := New(Config{})
	err := m.WriteToFile("fd:404", t.TempDir()+"/x.txt", WriteToFileOptions{Mode: WriteModeWrite, ExistOK: true})
	require.Error(t, err)
	var notFound *ErrNotFound
	assert.ErrorAs(t, err, &notFound)
}

func TestEmptyContentSinglePage(t *testing.T) {
	m := New(Config{PageSize: 10})
	id := m.Create("", SourceToolResult)
	f, _ := m.Get(id)
	assert.Equal(t, 1, f.TotalPages())

	r, err := m.Read(id, ReadOptions{Mode: ModePage, Page: 1})
	require.NoError(t, err)
	assert.Equal(t, "", r.Data)
	assert.False(t, r.Truncated)
}
