package stepseq

import "github.com/cbegin/seqsynth-go/internal/param"

// NoteLengths maps a note-length index to its length in quarter-note beats.
var NoteLengths = [param.NumNoteLengths]float64{
	1.0 / 16, // 1/64
	1.0 / 12, // 1/32 triplet
	1.0 / 8,  // 1/32
	1.0 / 6,  // 1/16 triplet
	1.0 / 4,  // 1/16
	3.0 / 8,  // dotted 1/16
	1.0 / 3,  // 1/8 triplet
	1.0 / 2,  // 1/8
	3.0 / 4,  // dotted 1/8
	2.0 / 3,  // 1/4 triplet
	1,        // 1/4
	1.5,      // dotted 1/4
	2,        // 1/2
	3,        // dotted 1/2
	4,        // 1 bar
	8,        // 2 bars
}

var NoteLengthNames = [param.NumNoteLengths]string{
	"1/64", "1/32T", "1/32", "1/16T", "1/16", "1/16.", "1/8T", "1/8",
	"1/8.", "1/4T", "1/4", "1/4.", "1/2", "1/2.", "1/1", "2/1",
}

// NoteSeconds converts a note-length index to seconds at tempo (BPM).
// Out-of-range indices are clamped; a non-positive tempo falls back to 120.
func NoteSeconds(index int, tempo float64) float64 {
	if tempo <= 0 {
		tempo = 120
	}
	index = clampInt(index, 0, len(NoteLengths)-1)
	return NoteLengths[index] * 60 / tempo
}
