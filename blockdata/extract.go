// Package blockdata writes a decoded stream's top-level BLOCKDATA payloads
// out to individual files, alongside a manifest describing where each one
// landed.
package blockdata

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/bochkov/jdeserialize/jdeserialize"
)

// BlockInfo describes one extracted block-data payload.
type BlockInfo struct {
	Index  int
	Offset int
	Size   int
	File   string
}

// ExtractBlockData walks stream.TopLevel(), writes each top-level
// BLOCKDATA's bytes to dir/block-<n>.bin, and returns a manifest of
// {Index, Offset, Size, File}. Offset is the cumulative byte count of prior
// extracted blocks: the decoder does not track true stream byte offsets
// beyond the recording buffer it uses for exception capture, so this is the
// best positional information available after the fact.
func ExtractBlockData(stream *jdeserialize.DecodedStream, dir string) ([]BlockInfo, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "error creating output directory %q", dir)
	}

	var manifest []BlockInfo
	offset := 0
	for _, c := range stream.TopLevel() {
		if c == nil {
			continue
		}
		bv, ok := c.Value.(*jdeserialize.BlockDataValue)
		if !ok {
			continue
		}

		idx := len(manifest)
		name := fmt.Sprintf("block-%d.bin", idx)
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, bv.Data, 0o644); err != nil {
			return nil, errors.Wrapf(err, "error writing %q", path)
		}

		manifest = append(manifest, BlockInfo{Index: idx, Offset: offset, Size: len(bv.Data), File: name})
		offset += len(bv.Data)
	}

	if err := writeManifest(dir, manifest); err != nil {
		return nil, err
	}
	return manifest, nil
}

func writeManifest(dir string, manifest []BlockInfo) error {
	var b strings.Builder
	for _, info := range manifest {
		fmt.Fprintf(&b, "%d\t%s\toffset=%d\tsize=%d\n", info.Index, info.File, info.Offset, info.Size)
	}
	path := filepath.Join(dir, "manifest.txt")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return errors.Wrapf(err, "error writing manifest %q", path)
	}
	return nil
}
