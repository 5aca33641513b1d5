package soundfont

import (
	"fmt"
	"io"
	"os"

	"github.com/sinshu/go-meltysynth/meltysynth"
)

const programChange = 0xC0

// Bank plays SoundFont instruments one frame at a time.
type Bank struct {
	synth *meltysynth.Synthesizer
	left  []float32
	right []float32
}

func Load(r io.Reader, sampleRate int) (*Bank, error) {
	sf, err := meltysynth.NewSoundFont(r)
	if err != nil {
		return nil, fmt.Errorf("read soundfont: %w", err)
	}
	settings := meltysynth.NewSynthesizerSettings(int32(sampleRate))
	synth, err := meltysynth.NewSynthesizer(sf, settings)
	if err != nil {
		return nil, fmt.Errorf("create synthesizer: %w", err)
	}
	return &Bank{
		synth: synth,
		left:  make([]float32, 1),
		right: make([]float32, 1),
	}, nil
}

func LoadFile(path string, sampleRate int) (*Bank, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f, sampleRate)
}

func (b *Bank) SetProgram(channel, program int) {
	b.synth.ProcessMidiMessage(int32(channel), programChange, int32(program), 0)
}

func (b *Bank) NoteOn(channel, key, velocity int) {
	b.synth.NoteOn(int32(channel), int32(key), int32(velocity))
}

func (b *Bank) NoteOff(channel, key int) {
	b.synth.NoteOff(int32(channel), int32(key))
}

func (b *Bank) AllNotesOff() {
	b.synth.NoteOffAll(false)
}

func (b *Bank) RenderFrame() (float32, float32) {
	b.synth.Render(b.left, b.right)
	return b.left[0], b.right[0]
}
