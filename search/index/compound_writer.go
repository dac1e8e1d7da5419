package index

import (
	"bytes"
	"fmt"
	"slices"
)

// CompoundWriter collects the sections written by the segment component
// writers and lays them out back to back when the segment is sealed.
type CompoundWriter struct {
	names    []string
	sections map[string]*SectionWriter
}

func newCompoundWriter() *CompoundWriter {
	return &CompoundWriter{
		names:    make([]string, 0, 16),
		sections: make(map[string]*SectionWriter, 16),
	}
}

func (compound *CompoundWriter) Create(name string) (*SectionWriter, error) {
	if _, exists := compound.sections[name]; exists {
		return nil, fmt.Errorf("section %q already exists", name)
	}

	writer := &SectionWriter{}
	compound.names = append(compound.names, name)
	compound.sections[name] = writer

	return writer, nil
}

// Seal copies every section into a freshly mapped CompoundFile.
func (compound *CompoundWriter) Seal() (*CompoundFile, error) {
	names := slices.Clone(compound.names)
	slices.Sort(names)

	size := 0
	for _, name := range names {
		size += compound.sections[name].buffer.Len()
	}

	layout := make(map[string]section, len(names))
	offset := 0
	for _, name := range names {
		length := compound.sections[name].buffer.Len()
		layout[name] = section{start: offset, end: offset + length}
		offset += length
	}

	// A segment whose documents carry no indexed or fast value still gets a
	// valid mapping.
	file, err := newCompoundFile(max(size, 1), layout)
	if err != nil {
		return nil, err
	}

	for _, name := range names {
		s := layout[name]
		copy(file.data[s.start:s.end], compound.sections[name].buffer.Bytes())
	}

	return file, nil
}

type SectionWriter struct {
	buffer bytes.Buffer
}

func (writer *SectionWriter) Offset() uint64 {
	return uint64(writer.buffer.Len())
}

func (writer *SectionWriter) Write(data []byte) (int, error) {
	return writer.buffer.Write(data)
}
