// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ChunkMeta carries the structural context of a chunk.
type ChunkMeta struct {
	// DocItems lists the self references of the items the chunk was built from.
	DocItems []string `json:"doc_items" yaml:"doc_items"`

	// Headings is the heading path in effect where the chunk starts,
	// outermost first.
	Headings []string `json:"headings" yaml:"headings"`

	// Captions holds caption texts for table and picture chunks.
	Captions []string `json:"captions" yaml:"captions"`
}

// Chunk is a contiguous span of document text produced by a chunker.
type Chunk struct {
	Text string    `json:"text" yaml:"text"`
	Meta ChunkMeta `json:"meta" yaml:"meta"`
}

// ChunkRecord is the serialized output unit: one JSON object per line.
// Field order and names are part of the output format.
type ChunkRecord struct {
	ChunkID int       `json:"chunk_id" yaml:"chunk_id"`
	Text    string    `json:"text" yaml:"text"`
	Meta    ChunkMeta `json:"meta" yaml:"meta"`
}

// NewChunkRecord builds the record for the chunk at position id. Nil
// metadata lists are normalized to empty lists so every line carries
// arrays rather than nulls.
func NewChunkRecord(id int, c Chunk) ChunkRecord {
	return ChunkRecord{
		ChunkID: id,
		Text:    c.Text,
		Meta: ChunkMeta{
			DocItems: nonNil(c.Meta.DocItems),
			Headings: nonNil(c.Meta.Headings),
			Captions: nonNil(c.Meta.Captions),
		},
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
