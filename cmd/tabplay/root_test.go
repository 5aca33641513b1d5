package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbegin/tabplay-go/internal/document"
)

const raw = "e|--3--|--5--|\nB|-----|-----|\nG|-----|-----|\nD|-----|-----|\nA|-----|-----|\nE|-----|-----|\n"

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestLoadRawTab(t *testing.T) {
	doc, err := loadDocument(writeTemp(t, "riff.txt", raw))
	require.NoError(t, err)
	require.Len(t, doc.Blocks, 1)
	assert.True(t, doc.Blocks[0].IsTab())
	assert.Equal(t, 2, doc.Blocks[0].Bars)
	assert.Equal(t, document.DefaultTempo, doc.Blocks[0].Tempo)
}

func TestLoadExportedDocument(t *testing.T) {
	src := document.New("Song")
	src.Update(src.Blocks[1].ID, raw)
	doc, err := loadDocument(writeTemp(t, "song.tab", document.Export(src)))
	require.NoError(t, err)
	assert.Equal(t, "Song", doc.Metadata.Title)
	assert.Len(t, doc.Blocks, 2)
}

func TestLoadBrokenDocumentExplains(t *testing.T) {
	_, err := loadDocument(writeTemp(t, "bad.tab", "--- only a dash line"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "metadata header")
}

func TestBlankCommand(t *testing.T) {
	out := run(t, "blank", "--bars", "2", "--tuning", "D A D G B E")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 6)
	assert.True(t, strings.HasPrefix(lines[0], "e|"))
	assert.True(t, strings.HasPrefix(lines[5], "d|"))
	assert.Equal(t, 3, strings.Count(lines[0], "|"))
}

func TestCheckCommand(t *testing.T) {
	src := document.New("Round")
	src.Update(src.Blocks[0].ID, "notes")
	src.Update(src.Blocks[1].ID, raw)
	out := run(t, "check", writeTemp(t, "song.tab", document.Export(src)))
	assert.Equal(t, "ok: 2 blocks\n", out)
}

func TestMidiCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "riff.mid")
	run(t, "midi", "-o", path, writeTemp(t, "riff.txt", raw))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "MThd", string(data[:4]))
}
