// Package iostore converts a staged directory tree into the UE5
// container pair: a .utoc table of contents and a .ucas content
// store. Each staged file becomes one chunk, stored in 64 KiB
// compression blocks.
package iostore

import "errors"

// tocMagic opens every .utoc file.
var tocMagic = [16]byte{'-', '=', '=', '-', '-', '=', '=', '-', '-', '=', '=', '-', '-', '=', '=', '-'}

// tocVersion is the table-of-contents layout version this writer
// emits and the reader accepts.
const tocVersion uint32 = 3

// blockSize is the raw-byte span of one compression block.
const blockSize = 64 << 10

// blockAlign is the alignment of block payloads inside the .ucas.
const blockAlign = 16

// EngineVersion tags the engine release the container targets.
type EngineVersion uint32

// UE5_3 is the only engine version the pipeline currently targets.
const UE5_3 EngineVersion = 0x0503

// Container flags.
const (
	flagIndexed    uint32 = 1 << 0
	flagCompressed uint32 = 1 << 1
)

// chunkTypePackageData marks a chunk carrying staged file content.
const chunkTypePackageData uint8 = 1

var (
	// ErrConversion wraps any failure while producing the pair.
	ErrConversion = errors.New("iostore: conversion failed")

	// ErrBadTOC is returned when a .utoc cannot be parsed.
	ErrBadTOC = errors.New("iostore: malformed table of contents")
)

// Compression selects the block codec for the .ucas.
type Compression uint8

const (
	CompressionNone  Compression = 0
	CompressionOodle Compression = 1
	CompressionZstd  Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionOodle:
		return "Oodle"
	case CompressionZstd:
		return "Zstd"
	}
	return "Unknown"
}

// methodNames is the TOC method-name table; slot 0 is uncompressed.
var methodNames = [...]string{"", "Oodle", "Zstd"}
