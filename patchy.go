/*
Package patchy is the library facade over the diff and patch pipelines: it
wires blockindex, diffengine, plan, container, and applyengine together the
way gosync.RSync wired comparer, patcher, and a blocksource for its own
callers, but operating on two local files instead of a local file plus a
remote reference.
*/
package patchy

import (
	"bufio"
	"bytes"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/patchy-sync/patchy/applyengine"
	"github.com/patchy-sync/patchy/blockindex"
	"github.com/patchy-sync/patchy/container"
	"github.com/patchy-sync/patchy/diffengine"
	"github.com/patchy-sync/patchy/patcherrors"
	"github.com/patchy-sync/patchy/plan"
	"github.com/patchy-sync/patchy/strongsum"
)

// DefaultBLog is the block-size exponent used when a caller doesn't pick
// one: B = 2^11 = 2048 bytes.
const DefaultBLog = 11

// DiffOptions configures Diff. A zero value selects the documented
// defaults.
type DiffOptions struct {
	// BLog sets B = 2^BLog as the block size used to index other. Must
	// be in [6, 24]; zero selects DefaultBLog.
	BLog uint8
	// Level is the zstd compression level used for the patch body. Must
	// be in [container.MinLevel, container.MaxLevel]; zero selects
	// container.DefaultLevel.
	Level int
}

// Diff computes a patch turning basePath into otherPath and writes it to
// patchPath. If patchPath is empty, the full pipeline still runs
// (including the in-memory verification below) but nothing is written:
// this is the CLI's verify-only mode.
func Diff(basePath, otherPath, patchPath string, opts DiffOptions) error {
	bLog := opts.BLog
	if bLog == 0 {
		bLog = DefaultBLog
	}
	if bLog < 6 || bLog > 24 {
		return patcherrors.New(patcherrors.BadOption, "b_log must be in [6, 24]")
	}

	level := opts.Level
	if level == 0 {
		level = container.DefaultLevel
	}
	if level < container.MinLevel || level > container.MaxLevel {
		return patcherrors.New(patcherrors.BadOption, "level must be in [1, 22]")
	}

	blockSize := 1 << bLog

	otherBytes, otherSize, otherHash, err := readAndHash(otherPath)
	if err != nil {
		return err
	}

	idx, err := blockindex.Build(bytes.NewReader(otherBytes), blockSize)
	if err != nil {
		return patcherrors.Wrap(patcherrors.IoError, err, "building block index")
	}

	baseFile, err := os.Open(basePath)
	if err != nil {
		return patcherrors.Wrap(patcherrors.IoError, err, "opening base")
	}
	defer baseFile.Close()

	baseSize, baseHash, err := hashFile(baseFile)
	if err != nil {
		return err
	}
	if _, err := baseFile.Seek(0, io.SeekStart); err != nil {
		return patcherrors.Wrap(patcherrors.IoError, err, "rewinding base")
	}

	matches, err := diffengine.Scan(bufio.NewReader(baseFile), blockSize, idx)
	if err != nil {
		return patcherrors.Wrap(patcherrors.IoError, err, "scanning base")
	}

	raw := diffengine.BuildRawPlan(matches, idx, otherBytes)
	canon := plan.Canonicalize(raw)

	if err := verifyPlan(basePath, baseSize, baseHash, otherSize, otherHash, canon); err != nil {
		return err
	}

	if patchPath == "" {
		return nil
	}

	p := container.Patch{
		Header:    container.Header{FormatVersion: container.FormatVersion, BLog: bLog},
		BaseSize:  uint64(baseSize),
		BaseHash:  baseHash,
		OtherSize: uint64(otherSize),
		OtherHash: otherHash,
		Plan:      canon,
	}

	return writeAtomic(patchPath, func(w io.Writer) error {
		return container.Write(w, p, level)
	})
}

// Apply reads the patch at patchPath and reconstructs other from
// basePath. If outputPath is empty, decoding and verification run but
// nothing is written: this is the CLI's verify-only mode.
func Apply(basePath, patchPath, outputPath string) error {
	patchFile, err := os.Open(patchPath)
	if err != nil {
		return patcherrors.Wrap(patcherrors.IoError, err, "opening patch")
	}
	defer patchFile.Close()

	p, err := container.Read(bufio.NewReader(patchFile))
	if err != nil {
		return err
	}

	baseFile, err := os.Open(basePath)
	if err != nil {
		return patcherrors.Wrap(patcherrors.IoError, err, "opening base")
	}
	defer baseFile.Close()

	if outputPath == "" {
		return applyengine.Apply(ioutil.Discard, baseFile, p.BaseSize, p.BaseHash, p.OtherSize, p.OtherHash, p.Plan)
	}

	return writeAtomic(outputPath, func(w io.Writer) error {
		return applyengine.Apply(w, baseFile, p.BaseSize, p.BaseHash, p.OtherSize, p.OtherHash, p.Plan)
	})
}

// verifyPlan replays canon against base in memory to confirm it actually
// reproduces other before a patch is ever written, per the diff pathway's
// self-check.
func verifyPlan(basePath string, baseSize int64, baseHash [strongsum.Size]byte, otherSize int64, otherHash [strongsum.Size]byte, canon plan.Plan) error {
	base, err := os.Open(basePath)
	if err != nil {
		return patcherrors.Wrap(patcherrors.IoError, err, "reopening base for verification")
	}
	defer base.Close()

	if err := applyengine.Apply(ioutil.Discard, base, uint64(baseSize), baseHash, uint64(otherSize), otherHash, canon); err != nil {
		if kind, ok := patcherrors.KindOf(err); ok {
			return patcherrors.Wrap(patcherrors.DiffVerificationFailed, err, kind.String())
		}
		return patcherrors.Wrap(patcherrors.DiffVerificationFailed, err, "replaying plan against base")
	}

	return nil
}

func readAndHash(path string) (data []byte, size int64, hash [strongsum.Size]byte, err error) {
	data, err = ioutil.ReadFile(path)
	if err != nil {
		return nil, 0, hash, patcherrors.Wrap(patcherrors.IoError, err, "reading "+path)
	}

	return data, int64(len(data)), strongsum.Sum(data), nil
}

func hashFile(f *os.File) (size int64, hash [strongsum.Size]byte, err error) {
	h := strongsum.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return 0, hash, patcherrors.Wrap(patcherrors.IoError, err, "hashing base")
	}

	copy(hash[:], h.Sum(nil))
	return n, hash, nil
}

// writeAtomic writes to a temporary file beside dst and renames it into
// place on success, following the teacher's getTempFile/fileCopyCloser
// pattern in rsync.go. On any failure the temporary file is removed so a
// partial write never appears at dst.
func writeAtomic(dst string, write func(io.Writer) error) (err error) {
	dir := filepath.Dir(dst)

	tmp, err := ioutil.TempFile(dir, "patchy_tmp_")
	if err != nil {
		return patcherrors.Wrap(patcherrors.IoError, err, "creating temporary output file")
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	bw := bufio.NewWriter(tmp)
	if err = write(bw); err != nil {
		return err
	}
	if err = bw.Flush(); err != nil {
		return patcherrors.Wrap(patcherrors.IoError, err, "flushing temporary output file")
	}
	if err = tmp.Close(); err != nil {
		return patcherrors.Wrap(patcherrors.IoError, err, "closing temporary output file")
	}
	if err = os.Rename(tmpName, dst); err != nil {
		return patcherrors.Wrap(patcherrors.IoError, err, "renaming temporary output file into place")
	}

	return nil
}
