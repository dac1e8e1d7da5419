package index

import (
	"encoding/binary"
)

func statsSectionName(fieldName string) string {
	return fieldName + ".stats"
}

type FieldStats struct {
	// Documents with at least one token in the field.
	DocCount    uint32
	SumTermFreq uint64
}

func (stats FieldStats) AverageLength() float32 {
	if stats.DocCount == 0 {
		return 0
	}

	return float32(stats.SumTermFreq) / float32(stats.DocCount)
}

func writeFieldStats(compound *CompoundWriter, fieldName string, stats FieldStats) error {
	writer, err := compound.Create(statsSectionName(fieldName))
	if err != nil {
		return err
	}

	buffer := make([]byte, 12)

	binary.BigEndian.PutUint32(buffer, stats.DocCount)
	binary.BigEndian.PutUint64(buffer[4:], stats.SumTermFreq)

	_, err = writer.Write(buffer)
	return err
}

func readFieldStats(compound *CompoundFile, fieldName string) FieldStats {
	data, exists := compound.Section(statsSectionName(fieldName))
	if !exists || len(data) < 12 {
		return FieldStats{}
	}

	return FieldStats{
		DocCount:    binary.BigEndian.Uint32(data),
		SumTermFreq: binary.BigEndian.Uint64(data[4:]),
	}
}
