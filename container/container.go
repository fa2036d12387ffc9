/*
Package container reads and writes the on-disk patch artifact: a fixed
header identifying the format, followed by a compressed body holding the
file-level hashes, the command vector, and the literal pool.

Framing follows gosync/common.go's write_headers / read_headers_and_check
(magic string, then fixed-width fields, via encoding/binary over
binary.LittleEndian); the body's compression is grounded on minio's
cmd/untar.go use of klauspost/compress/zstd.
*/
package container

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/patchy-sync/patchy/patcherrors"
	"github.com/patchy-sync/patchy/plan"
	"github.com/patchy-sync/patchy/strongsum"
)

// Magic identifies a patchy patch file.
const Magic = "PaTy"

// FormatVersion is incremented on any incompatible change to the layout
// below.
const FormatVersion uint16 = 1

// DefaultLevel is the zstd compression level used when none is given.
const DefaultLevel = 15

// MinLevel and MaxLevel bound the accepted compression level range.
const (
	MinLevel = 1
	MaxLevel = 22
)

// Header is the uncompressed prefix of a patch file.
type Header struct {
	FormatVersion uint16
	BLog          uint8
}

// Patch is the full in-memory representation of a patch artifact.
type Patch struct {
	Header    Header
	BaseSize  uint64
	BaseHash  [strongsum.Size]byte
	OtherSize uint64
	OtherHash [strongsum.Size]byte
	Plan      plan.Plan
}

// Write serializes p to w: the header uncompressed, then the body
// compressed at level.
func Write(w io.Writer, p Patch, level int) error {
	if level < MinLevel || level > MaxLevel {
		return patcherrors.New(patcherrors.BadOption, "compression level out of range [1, 22]")
	}

	if _, err := io.WriteString(w, Magic); err != nil {
		return patcherrors.Wrap(patcherrors.IoError, err, "writing magic")
	}
	if err := binary.Write(w, binary.LittleEndian, p.Header.FormatVersion); err != nil {
		return patcherrors.Wrap(patcherrors.IoError, err, "writing format version")
	}
	if err := binary.Write(w, binary.LittleEndian, p.Header.BLog); err != nil {
		return patcherrors.Wrap(patcherrors.IoError, err, "writing b_log")
	}
	if err := binary.Write(w, binary.LittleEndian, uint8(0)); err != nil {
		return patcherrors.Wrap(patcherrors.IoError, err, "writing reserved byte")
	}

	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	if err != nil {
		return patcherrors.Wrap(patcherrors.IoError, err, "opening compressor")
	}

	if err := writeBody(enc, p); err != nil {
		enc.Close()
		return err
	}

	if err := enc.Close(); err != nil {
		return patcherrors.Wrap(patcherrors.IoError, err, "closing compressor")
	}

	return nil
}

func writeBody(w io.Writer, p Patch) error {
	fields := []interface{}{
		p.BaseSize,
		p.BaseHash,
		p.OtherSize,
		p.OtherHash,
		uint64(len(p.Plan.Commands)),
	}
	for _, f := range fields {
		if err := binary.Write(w, binary.LittleEndian, f); err != nil {
			return patcherrors.Wrap(patcherrors.IoError, err, "writing body field")
		}
	}

	for _, cmd := range p.Plan.Commands {
		if err := binary.Write(w, binary.LittleEndian, uint8(cmd.Tag)); err != nil {
			return patcherrors.Wrap(patcherrors.IoError, err, "writing command tag")
		}
		if err := binary.Write(w, binary.LittleEndian, cmd.SrcOffset); err != nil {
			return patcherrors.Wrap(patcherrors.IoError, err, "writing command source offset")
		}
		if err := binary.Write(w, binary.LittleEndian, cmd.DstOffset); err != nil {
			return patcherrors.Wrap(patcherrors.IoError, err, "writing command destination offset")
		}
		if err := binary.Write(w, binary.LittleEndian, cmd.Length); err != nil {
			return patcherrors.Wrap(patcherrors.IoError, err, "writing command length")
		}
	}

	if err := binary.Write(w, binary.LittleEndian, uint64(len(p.Plan.LiteralPool))); err != nil {
		return patcherrors.Wrap(patcherrors.IoError, err, "writing literal pool size")
	}
	if _, err := w.Write(p.Plan.LiteralPool); err != nil {
		return patcherrors.Wrap(patcherrors.IoError, err, "writing literal pool")
	}

	return nil
}

// Read parses a patch artifact previously written by Write.
func Read(r io.Reader) (Patch, error) {
	var p Patch

	br := bufio.NewReader(r)

	magic := make([]byte, len(Magic))
	if _, err := io.ReadFull(br, magic); err != nil {
		return p, patcherrors.Wrap(patcherrors.PatchMalformed, err, "reading magic")
	}
	if string(magic) != Magic {
		return p, patcherrors.New(patcherrors.PatchMalformed, "magic does not match a patchy patch file")
	}

	if err := binary.Read(br, binary.LittleEndian, &p.Header.FormatVersion); err != nil {
		return p, patcherrors.Wrap(patcherrors.PatchMalformed, err, "reading format version")
	}
	if p.Header.FormatVersion != FormatVersion {
		return p, patcherrors.New(patcherrors.PatchMalformed, "unsupported format version")
	}

	if err := binary.Read(br, binary.LittleEndian, &p.Header.BLog); err != nil {
		return p, patcherrors.Wrap(patcherrors.PatchMalformed, err, "reading b_log")
	}
	if p.Header.BLog < 6 || p.Header.BLog > 24 {
		return p, patcherrors.New(patcherrors.PatchMalformed, "b_log out of range [6, 24]")
	}

	var reserved uint8
	if err := binary.Read(br, binary.LittleEndian, &reserved); err != nil {
		return p, patcherrors.Wrap(patcherrors.PatchMalformed, err, "reading reserved byte")
	}

	dec, err := zstd.NewReader(br)
	if err != nil {
		return p, patcherrors.Wrap(patcherrors.PatchMalformed, err, "opening decompressor")
	}
	defer dec.Close()

	if err := readBody(dec, &p); err != nil {
		return p, err
	}

	if err := validateTiling(p); err != nil {
		return p, err
	}

	return p, nil
}

// validateTiling is the part of spec §4.6's "Read" contract readBody
// itself doesn't check: that command destinations tile [0, other_size)
// exactly, in ascending order with no gaps or overlaps, and that every
// command's source range is in bounds (base range for CopyBase,
// literal-pool range for CopyLiteral). applyengine.Apply re-derives the
// destination-cursor half of this at replay time, but a caller that only
// calls container.Read is otherwise handed an unvalidated Patch.
func validateTiling(p Patch) error {
	litLen := uint64(len(p.Plan.LiteralPool))
	cursor := uint64(0)

	for _, cmd := range p.Plan.Commands {
		if cmd.DstOffset != cursor {
			return patcherrors.New(patcherrors.PatchMalformed, "commands do not tile the destination range")
		}

		end := cmd.SrcOffset + uint64(cmd.Length)
		switch cmd.Tag {
		case plan.CopyBase:
			if end > p.BaseSize {
				return patcherrors.New(patcherrors.PatchMalformed, "command source range exceeds base size")
			}
		case plan.CopyLiteral:
			if end > litLen {
				return patcherrors.New(patcherrors.PatchMalformed, "command source range exceeds literal pool")
			}
		default:
			return patcherrors.New(patcherrors.PatchMalformed, "unknown command tag")
		}

		cursor += uint64(cmd.Length)
	}

	if cursor != p.OtherSize {
		return patcherrors.New(patcherrors.PatchMalformed, "commands do not tile [0, other_size)")
	}

	return nil
}

func readBody(r io.Reader, p *Patch) error {
	if err := binary.Read(r, binary.LittleEndian, &p.BaseSize); err != nil {
		return patcherrors.Wrap(patcherrors.PatchMalformed, err, "reading base size")
	}
	if err := binary.Read(r, binary.LittleEndian, &p.BaseHash); err != nil {
		return patcherrors.Wrap(patcherrors.PatchMalformed, err, "reading base hash")
	}
	if err := binary.Read(r, binary.LittleEndian, &p.OtherSize); err != nil {
		return patcherrors.Wrap(patcherrors.PatchMalformed, err, "reading other size")
	}
	if err := binary.Read(r, binary.LittleEndian, &p.OtherHash); err != nil {
		return patcherrors.Wrap(patcherrors.PatchMalformed, err, "reading other hash")
	}

	var commandCount uint64
	if err := binary.Read(r, binary.LittleEndian, &commandCount); err != nil {
		return patcherrors.Wrap(patcherrors.PatchMalformed, err, "reading command count")
	}

	p.Plan.Commands = make([]plan.Command, commandCount)
	for i := range p.Plan.Commands {
		var tag uint8
		if err := binary.Read(r, binary.LittleEndian, &tag); err != nil {
			return patcherrors.Wrap(patcherrors.PatchMalformed, err, "reading command tag")
		}
		if tag != uint8(plan.CopyBase) && tag != uint8(plan.CopyLiteral) {
			return patcherrors.New(patcherrors.PatchMalformed, "unknown command tag")
		}

		cmd := plan.Command{Tag: plan.Tag(tag)}
		if err := binary.Read(r, binary.LittleEndian, &cmd.SrcOffset); err != nil {
			return patcherrors.Wrap(patcherrors.PatchMalformed, err, "reading command source offset")
		}
		if err := binary.Read(r, binary.LittleEndian, &cmd.DstOffset); err != nil {
			return patcherrors.Wrap(patcherrors.PatchMalformed, err, "reading command destination offset")
		}
		if err := binary.Read(r, binary.LittleEndian, &cmd.Length); err != nil {
			return patcherrors.Wrap(patcherrors.PatchMalformed, err, "reading command length")
		}

		p.Plan.Commands[i] = cmd
	}

	var literalPoolSize uint64
	if err := binary.Read(r, binary.LittleEndian, &literalPoolSize); err != nil {
		return patcherrors.Wrap(patcherrors.PatchMalformed, err, "reading literal pool size")
	}

	p.Plan.LiteralPool = make([]byte, literalPoolSize)
	if _, err := io.ReadFull(r, p.Plan.LiteralPool); err != nil {
		return patcherrors.Wrap(patcherrors.PatchMalformed, err, "reading literal pool")
	}

	return nil
}
