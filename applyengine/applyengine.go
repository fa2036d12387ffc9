/*
Package applyengine replays a patch's command vector against base and a
literal pool to reconstruct other, verifying size and hash both before and
after the replay.

The replay loop follows patcher/sequential/sequential.go's shape (stream
commands to output in order, one io.Copy-style read per command) but
generalized from the teacher's two-source model (a local ReadSeeker plus a
pluggable, possibly-remote, possibly-concurrent patcher.BlockSource) to the
spec's two fixed, always-local sources: the base file and the in-container
literal pool, replayed strictly in order on a single goroutine.
*/
package applyengine

import (
	"bytes"
	"io"

	"github.com/patchy-sync/patchy/patcherrors"
	"github.com/patchy-sync/patchy/plan"
	"github.com/patchy-sync/patchy/strongsum"
)

// Apply reconstructs other by replaying p against base, writing the result
// to output. base must support seeking to arbitrary CopyBase source
// offsets; output is written as a pure forward stream.
//
// Preconditions (base size and hash) and postconditions (output size and
// hash) are both checked; a mismatch aborts with a distinct error kind.
func Apply(
	output io.Writer,
	base io.ReadSeeker,
	baseSize uint64,
	baseHash [strongsum.Size]byte,
	otherSize uint64,
	otherHash [strongsum.Size]byte,
	p plan.Plan,
) error {
	if err := checkBase(base, baseSize, baseHash); err != nil {
		return err
	}

	strong := strongsum.New()
	tee := io.MultiWriter(output, strong)

	cursor := uint64(0)
	for _, cmd := range p.Commands {
		if cmd.DstOffset != cursor {
			return patcherrors.New(
				patcherrors.PatchMalformed,
				"command destination offset does not follow the output cursor",
			)
		}

		var src io.Reader
		switch cmd.Tag {
		case plan.CopyBase:
			if _, err := base.Seek(int64(cmd.SrcOffset), io.SeekStart); err != nil {
				return patcherrors.Wrap(patcherrors.IoError, err, "seeking base")
			}
			src = io.LimitReader(base, int64(cmd.Length))
		case plan.CopyLiteral:
			end := cmd.SrcOffset + uint64(cmd.Length)
			if end > uint64(len(p.LiteralPool)) {
				return patcherrors.New(patcherrors.PatchMalformed, "literal command reaches past the literal pool")
			}
			src = bytes.NewReader(p.LiteralPool[cmd.SrcOffset:end])
		default:
			return patcherrors.New(patcherrors.PatchMalformed, "unknown command tag")
		}

		n, err := io.Copy(tee, src)
		if err != nil {
			return patcherrors.Wrap(patcherrors.IoError, err, "writing output")
		}
		if uint64(n) != uint64(cmd.Length) {
			return patcherrors.New(patcherrors.PatchMalformed, "command produced fewer bytes than its recorded length")
		}

		cursor += uint64(cmd.Length)
	}

	if cursor != otherSize {
		return patcherrors.New(patcherrors.OutputMismatch, "total bytes written does not match the recorded output size")
	}

	var sum [strongsum.Size]byte
	copy(sum[:], strong.Sum(nil))
	if sum != otherHash {
		return patcherrors.New(patcherrors.OutputMismatch, "output hash does not match the recorded output hash")
	}

	return nil
}

func checkBase(base io.ReadSeeker, baseSize uint64, baseHash [strongsum.Size]byte) error {
	if _, err := base.Seek(0, io.SeekStart); err != nil {
		return patcherrors.Wrap(patcherrors.IoError, err, "seeking base to start")
	}

	strong := strongsum.New()
	n, err := io.Copy(strong, base)
	if err != nil {
		return patcherrors.Wrap(patcherrors.IoError, err, "hashing base")
	}

	if uint64(n) != baseSize {
		return patcherrors.New(patcherrors.BaseMismatch, "base size does not match the patch's recorded base size")
	}

	var sum [strongsum.Size]byte
	copy(sum[:], strong.Sum(nil))
	if sum != baseHash {
		return patcherrors.New(patcherrors.BaseMismatch, "base hash does not match the patch's recorded base hash")
	}

	if _, err := base.Seek(0, io.SeekStart); err != nil {
		return patcherrors.Wrap(patcherrors.IoError, err, "rewinding base")
	}

	return nil
}
