package stack

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// Each page directory carries 11 entries of 12 bytes, plus the 2-byte
// entry count and the 4-byte next-IFD pointer.
const (
	writerEntries = 11
	writerIFDSize = 2 + writerEntries*12 + 4
)

// WriteTIFF encodes frames as a multi-page TIFF: 16-bit grayscale,
// little-endian, uncompressed, one strip per page. Samples are clamped to
// [0, 65535] and rounded. The output round-trips through Load.
func WriteTIFF(w io.Writer, frames []Frame) error {
	if len(frames) == 0 {
		return fmt.Errorf("cannot write empty stack")
	}
	height := len(frames[0])
	width := 0
	if height > 0 {
		width = len(frames[0][0])
	}
	if height == 0 || width == 0 {
		return fmt.Errorf("cannot write zero-sized frames")
	}
	for i, f := range frames {
		if len(f) != height || len(f[0]) != width {
			return fmt.Errorf("frame %d dimensions disagree with frame 0", i)
		}
	}

	pageBytes := height * width * 2
	dataEnd := int64(8) + int64(len(frames))*int64(pageBytes)

	hdr := make([]byte, 8)
	hdr[0], hdr[1] = 'I', 'I'
	binary.LittleEndian.PutUint16(hdr[2:4], 42)
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(dataEnd)) // first IFD follows the pixel data
	if _, err := w.Write(hdr); err != nil {
		return err
	}

	row := make([]byte, width*2)
	for _, f := range frames {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				v := f[y][x]
				if v < 0 {
					v = 0
				}
				if v > 65535 {
					v = 65535
				}
				binary.LittleEndian.PutUint16(row[x*2:x*2+2], uint16(v+0.5))
			}
			if _, err := w.Write(row); err != nil {
				return err
			}
		}
	}

	for i := range frames {
		dataOffset := uint32(8 + i*pageBytes)
		ifdOffset := dataEnd + int64(i)*writerIFDSize
		next := uint32(0)
		if i < len(frames)-1 {
			next = uint32(ifdOffset + writerIFDSize)
		}
		if err := writeIFD(w, width, height, dataOffset, uint32(pageBytes), next); err != nil {
			return err
		}
	}
	return nil
}

// WriteTIFFFile writes frames to path, creating or truncating it.
func WriteTIFFFile(path string, frames []Frame) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteTIFF(f, frames); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// writeIFD emits one page directory. Entries must stay sorted by tag ID.
func writeIFD(w io.Writer, width, height int, dataOffset, dataLen, next uint32) error {
	buf := make([]byte, 0, writerIFDSize)
	buf = binary.LittleEndian.AppendUint16(buf, writerEntries)
	buf = appendEntry(buf, tagImageWidth, typeLong, 1, uint32(width))
	buf = appendEntry(buf, tagImageLength, typeLong, 1, uint32(height))
	buf = appendEntry(buf, tagBitsPerSample, typeShort, 1, 16)
	buf = appendEntry(buf, tagCompression, typeShort, 1, 1)
	buf = appendEntry(buf, tagPhotometric, typeShort, 1, 1) // BlackIsZero
	buf = appendEntry(buf, tagStripOffsets, typeLong, 1, dataOffset)
	buf = appendEntry(buf, tagSamplesPerPixel, typeShort, 1, 1)
	buf = appendEntry(buf, tagRowsPerStrip, typeLong, 1, uint32(height))
	buf = appendEntry(buf, tagStripByteCounts, typeLong, 1, dataLen)
	buf = appendEntry(buf, tagPlanarConfig, typeShort, 1, 1)
	buf = appendEntry(buf, tagSampleFormat, typeShort, 1, 1)
	buf = binary.LittleEndian.AppendUint32(buf, next)
	_, err := w.Write(buf)
	return err
}

func appendEntry(buf []byte, tag, typ uint16, count, value uint32) []byte {
	buf = binary.LittleEndian.AppendUint16(buf, tag)
	buf = binary.LittleEndian.AppendUint16(buf, typ)
	buf = binary.LittleEndian.AppendUint32(buf, count)
	// For SHORT values the low-order bytes of the little-endian word are
	// exactly the 2-byte encoding, so one append covers both types.
	buf = binary.LittleEndian.AppendUint32(buf, value)
	return buf
}
