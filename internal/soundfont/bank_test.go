package soundfont

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadRejectsNonSoundFont(t *testing.T) {
	_, err := Load(bytes.NewReader([]byte("RIFF\x04\x00\x00\x00WAVE")), 44100)
	assert.Error(t, err)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.sf2"), 44100)
	assert.Error(t, err)
}
