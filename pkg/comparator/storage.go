package comparator

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/trytouca/touca-go/pkg/touca/codec"
	"github.com/trytouca/touca-go/pkg/touca/testcase"
)

// Storage reads decoded test case artifacts from the on-disk storage
// tree. The tree is read-only from the comparator's perspective (spec
// §5, "Shared resources").
type Storage struct {
	root string
}

// NewStorage roots a Storage at dir (the service's configured
// storage_dir).
func NewStorage(dir string) *Storage {
	return &Storage{root: dir}
}

// Load reads and decodes storage_dir/batchID/messageID.
func (s *Storage) Load(batchID, messageID string) (*testcase.TestCase, error) {
	path := filepath.Join(s.root, batchID, messageID)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading artifact %s: %w", path, err)
	}
	msg, err := codec.DecodeMessage(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding artifact %s: %w", path, err)
	}
	return testcase.FromMessage(msg)
}
