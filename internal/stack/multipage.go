package stack

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// errTIFFUnsupported marks files the baseline reader does not handle:
// non-TIFF content, compressed or color TIFFs, tiled layouts. The caller
// falls back to the registered image decoders for these.
var errTIFFUnsupported = errors.New("unsupported tiff layout")

// TIFF tag IDs used by the baseline grayscale reader.
const (
	tagImageWidth       = 256
	tagImageLength      = 257
	tagBitsPerSample    = 258
	tagCompression      = 259
	tagPhotometric      = 262
	tagStripOffsets     = 273
	tagSamplesPerPixel  = 277
	tagRowsPerStrip     = 278
	tagStripByteCounts  = 279
	tagPlanarConfig     = 284
	tagSampleFormat     = 339
)

// Field data types from the TIFF 6.0 specification.
const (
	typeByte  = 1
	typeShort = 3
	typeLong  = 4
)

const maxPages = 1 << 16

// decodeMultipageTIFF reads every page of a baseline grayscale TIFF.
//
// Supported layout: 8- or 16-bit single-sample pixels, uncompressed,
// strip-organized, either byte order. Returns errTIFFUnsupported for
// anything else so the caller can fall back; structural damage (offsets
// outside the file, short strips) is a hard error.
func decodeMultipageTIFF(r io.ReaderAt, size int64) ([]Frame, error) {
	var hdr [8]byte
	if size < 8 {
		return nil, errTIFFUnsupported
	}
	if _, err := r.ReadAt(hdr[:], 0); err != nil {
		return nil, fmt.Errorf("tiff: header read failed: %w", err)
	}

	var bo binary.ByteOrder
	switch {
	case hdr[0] == 'I' && hdr[1] == 'I':
		bo = binary.LittleEndian
	case hdr[0] == 'M' && hdr[1] == 'M':
		bo = binary.BigEndian
	default:
		return nil, errTIFFUnsupported
	}
	if bo.Uint16(hdr[2:4]) != 42 {
		return nil, errTIFFUnsupported
	}

	var frames []Frame
	offset := int64(bo.Uint32(hdr[4:8]))
	for offset != 0 {
		if len(frames) >= maxPages {
			return nil, fmt.Errorf("tiff: more than %d pages", maxPages)
		}
		frame, next, err := readIFD(r, size, bo, offset)
		if err != nil {
			return nil, err
		}
		frames = append(frames, frame)
		if next != 0 && next <= offset {
			return nil, fmt.Errorf("tiff: IFD chain does not advance (offset %d -> %d)", offset, next)
		}
		offset = next
	}
	if len(frames) == 0 {
		return nil, errTIFFUnsupported
	}
	return frames, nil
}

// ifdEntry is one 12-byte directory entry. Raw holds the value field,
// which is either the value itself or an offset to it.
type ifdEntry struct {
	typ   uint16
	count uint32
	raw   [4]byte
}

func readIFD(r io.ReaderAt, size int64, bo binary.ByteOrder, offset int64) (Frame, int64, error) {
	if offset < 8 || offset+2 > size {
		return nil, 0, fmt.Errorf("tiff: IFD offset %d outside file", offset)
	}
	var countBuf [2]byte
	if _, err := r.ReadAt(countBuf[:], offset); err != nil {
		return nil, 0, fmt.Errorf("tiff: IFD read failed: %w", err)
	}
	entryCount := int(bo.Uint16(countBuf[:]))

	raw := make([]byte, entryCount*12+4)
	if _, err := r.ReadAt(raw, offset+2); err != nil {
		return nil, 0, fmt.Errorf("tiff: IFD read failed: %w", err)
	}

	entries := make(map[uint16]ifdEntry, entryCount)
	for i := 0; i < entryCount; i++ {
		e := raw[i*12 : i*12+12]
		entry := ifdEntry{
			typ:   bo.Uint16(e[2:4]),
			count: bo.Uint32(e[4:8]),
		}
		copy(entry.raw[:], e[8:12])
		entries[bo.Uint16(e[0:2])] = entry
	}
	next := int64(bo.Uint32(raw[entryCount*12:]))

	values := func(tag uint16) ([]uint32, error) {
		e, ok := entries[tag]
		if !ok {
			return nil, nil
		}
		return fieldValues(r, size, bo, e)
	}
	scalar := func(tag uint16, def uint32) (uint32, error) {
		vals, err := values(tag)
		if err != nil {
			return 0, err
		}
		if len(vals) == 0 {
			return def, nil
		}
		return vals[0], nil
	}

	width, err := scalar(tagImageWidth, 0)
	if err != nil {
		return nil, 0, err
	}
	height, err := scalar(tagImageLength, 0)
	if err != nil {
		return nil, 0, err
	}
	if width == 0 || height == 0 {
		return nil, 0, fmt.Errorf("tiff: page has zero dimensions")
	}

	bits, err := scalar(tagBitsPerSample, 1)
	if err != nil {
		return nil, 0, err
	}
	compression, err := scalar(tagCompression, 1)
	if err != nil {
		return nil, 0, err
	}
	photometric, err := scalar(tagPhotometric, 1)
	if err != nil {
		return nil, 0, err
	}
	samples, err := scalar(tagSamplesPerPixel, 1)
	if err != nil {
		return nil, 0, err
	}
	planar, err := scalar(tagPlanarConfig, 1)
	if err != nil {
		return nil, 0, err
	}
	format, err := scalar(tagSampleFormat, 1)
	if err != nil {
		return nil, 0, err
	}
	if compression != 1 || samples != 1 || planar != 1 || format != 1 ||
		photometric > 1 || (bits != 8 && bits != 16) {
		return nil, 0, errTIFFUnsupported
	}

	stripOffsets, err := values(tagStripOffsets)
	if err != nil {
		return nil, 0, err
	}
	stripCounts, err := values(tagStripByteCounts)
	if err != nil {
		return nil, 0, err
	}
	if len(stripOffsets) == 0 || len(stripOffsets) != len(stripCounts) {
		return nil, 0, fmt.Errorf("tiff: strip offsets (%d) and byte counts (%d) disagree",
			len(stripOffsets), len(stripCounts))
	}

	bytesPerSample := int(bits) / 8
	expected := int(width) * int(height) * bytesPerSample
	pix := make([]byte, 0, expected)
	for i, so := range stripOffsets {
		sc := int64(stripCounts[i])
		if int64(so)+sc > size {
			return nil, 0, fmt.Errorf("tiff: strip %d extends past end of file", i)
		}
		buf := make([]byte, sc)
		if _, err := r.ReadAt(buf, int64(so)); err != nil {
			return nil, 0, fmt.Errorf("tiff: strip %d read failed: %w", i, err)
		}
		pix = append(pix, buf...)
	}
	if len(pix) < expected {
		return nil, 0, fmt.Errorf("tiff: page holds %d pixel bytes, expected %d", len(pix), expected)
	}

	f := NewFrame(int(height), int(width))
	for y := 0; y < int(height); y++ {
		rowStart := y * int(width) * bytesPerSample
		for x := 0; x < int(width); x++ {
			if bytesPerSample == 1 {
				f[y][x] = float64(pix[rowStart+x])
			} else {
				f[y][x] = float64(bo.Uint16(pix[rowStart+x*2 : rowStart+x*2+2]))
			}
		}
	}
	return f, next, nil
}

// fieldValues resolves an IFD entry to its numeric values, following the
// offset indirection when the encoded data exceeds the 4-byte value field.
func fieldValues(r io.ReaderAt, size int64, bo binary.ByteOrder, e ifdEntry) ([]uint32, error) {
	var unit int
	switch e.typ {
	case typeByte:
		unit = 1
	case typeShort:
		unit = 2
	case typeLong:
		unit = 4
	default:
		return nil, errTIFFUnsupported
	}

	total := int(e.count) * unit
	var data []byte
	if total <= 4 {
		data = e.raw[:total]
	} else {
		offset := int64(bo.Uint32(e.raw[:]))
		if offset+int64(total) > size {
			return nil, fmt.Errorf("tiff: field data extends past end of file")
		}
		data = make([]byte, total)
		if _, err := r.ReadAt(data, offset); err != nil {
			return nil, fmt.Errorf("tiff: field read failed: %w", err)
		}
	}

	vals := make([]uint32, e.count)
	for i := range vals {
		switch unit {
		case 1:
			vals[i] = uint32(data[i])
		case 2:
			vals[i] = uint32(bo.Uint16(data[i*2 : i*2+2]))
		case 4:
			vals[i] = bo.Uint32(data[i*4 : i*4+4])
		}
	}
	return vals, nil
}
