package index

import (
	"fmt"

	"github.com/edsrzf/mmap-go"
)

type section struct {
	start int
	end   int
}

// CompoundFile holds every section of a sealed segment in one anonymous
// memory mapping. The mapping lives until Close, which the owning Segment
// calls once its last reference is released.
type CompoundFile struct {
	data     mmap.MMap
	sections map[string]section
}

func newCompoundFile(size int, sections map[string]section) (*CompoundFile, error) {
	if size <= 0 {
		return nil, fmt.Errorf("compound file size must be positive, got %d", size)
	}

	data, err := mmap.MapRegion(nil, size, mmap.RDWR, mmap.ANON, 0)
	if err != nil {
		return nil, fmt.Errorf("map segment arena of %d bytes: %w", size, err)
	}

	return &CompoundFile{
		data:     data,
		sections: sections,
	}, nil
}

// Section returns the bytes of the named section. The slice aliases the
// mapping and must not be used after Close.
func (file *CompoundFile) Section(name string) ([]byte, bool) {
	s, exists := file.sections[name]
	if !exists {
		return nil, false
	}

	return file.data[s.start:s.end:s.end], true
}

func (file *CompoundFile) Size() int {
	return len(file.data)
}

func (file *CompoundFile) Close() error {
	if file.data == nil {
		return nil
	}

	err := file.data.Unmap()
	file.data = nil
	return err
}
