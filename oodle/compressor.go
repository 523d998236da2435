package oodle

// Compressor selects one of the vendor LZ codecs. The integer values
// are part of the vendor ABI and are passed through unchanged.
type Compressor int32

const (
	// CompressorNone passes bytes through uncompressed.
	CompressorNone Compressor = 3
	// CompressorKraken has fast decompression and high ratios.
	CompressorKraken Compressor = 8
	// CompressorMermaid sits between Kraken and Selkie: very fast,
	// still decent compression.
	CompressorMermaid Compressor = 9
	// CompressorSelkie is a super-fast relative of Mermaid, for
	// maximum decode speed.
	CompressorSelkie Compressor = 11
	// CompressorHydra picks between Leviathan, Kraken, Mermaid and
	// Selkie per block.
	CompressorHydra Compressor = 12
	// CompressorLeviathan trades slightly slower decompression for
	// higher ratios than Kraken.
	CompressorLeviathan Compressor = 13
)

func (c Compressor) String() string {
	switch c {
	case CompressorNone:
		return "None"
	case CompressorKraken:
		return "Kraken"
	case CompressorMermaid:
		return "Mermaid"
	case CompressorSelkie:
		return "Selkie"
	case CompressorHydra:
		return "Hydra"
	case CompressorLeviathan:
		return "Leviathan"
	}
	return "Unknown"
}

// ParseCompressor maps a codec name to its Compressor tag.
func ParseCompressor(s string) (Compressor, bool) {
	switch s {
	case "None":
		return CompressorNone, true
	case "Kraken":
		return CompressorKraken, true
	case "Mermaid":
		return CompressorMermaid, true
	case "Selkie":
		return CompressorSelkie, true
	case "Hydra":
		return CompressorHydra, true
	case "Leviathan":
		return CompressorLeviathan, true
	}
	return 0, false
}

// Level selects the encoder effort. Values are part of the vendor ABI.
type Level int32

const (
	LevelHyperFast4 Level = -4
	LevelHyperFast3 Level = -3
	LevelHyperFast2 Level = -2
	LevelHyperFast1 Level = -1
	// LevelNone copies raw bytes without compressing.
	LevelNone      Level = 0
	LevelSuperFast Level = 1
	LevelVeryFast  Level = 2
	LevelFast      Level = 3
	LevelNormal    Level = 4
	LevelOptimal1  Level = 5
	LevelOptimal2  Level = 6
	LevelOptimal3  Level = 7
	LevelOptimal4  Level = 8
	// LevelOptimal5 ignores encode speed for maximum compression.
	LevelOptimal5 Level = 9
)
