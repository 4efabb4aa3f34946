package chunker

import (
	"strings"

	"github.com/surabhi-chandrakant/AmbedkarGPT-Intern-Task/internal/domain"
)

// CharacterChunker splits text on a separator and greedily packs the
// resulting units into chunks of at most chunkSize characters, carrying
// up to overlap characters of trailing units into the next chunk.
type CharacterChunker struct {
	chunkSize int
	overlap   int
	separator string
}

func NewCharacterChunker(chunkSize, overlap int, separator string) *CharacterChunker {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 2
	}
	if separator == "" {
		separator = "\n"
	}
	return &CharacterChunker{chunkSize: chunkSize, overlap: overlap, separator: separator}
}

// Split is pure: the same text and parameters always yield the same
// chunk sequence, in original document order. Empty input yields no
// chunks; input shorter than chunkSize yields exactly one.
func (c *CharacterChunker) Split(text string) []domain.Chunk {
	units := c.units(text)
	if len(units) == 0 {
		return nil
	}

	var chunks []domain.Chunk
	var buf []string
	bufLen := 0

	flush := func() {
		if len(buf) == 0 {
			return
		}
		chunks = append(chunks, domain.Chunk{
			Text:  strings.Join(buf, c.separator),
			Index: len(chunks),
		})
		// Seed the next chunk with trailing units up to the overlap budget.
		var carry []string
		carryLen := 0
		for i := len(buf) - 1; i >= 0; i-- {
			n := len(buf[i])
			if carryLen > 0 {
				n += len(c.separator)
			}
			if carryLen+n > c.overlap {
				break
			}
			carry = append([]string{buf[i]}, carry...)
			carryLen += n
		}
		buf = carry
		bufLen = carryLen
	}

	for _, u := range units {
		n := len(u)
		if bufLen > 0 {
			n += len(c.separator)
		}
		if bufLen+n > c.chunkSize && len(buf) > 0 {
			flush()
			n = len(u)
			if bufLen > 0 {
				n += len(c.separator)
			}
			if bufLen+n > c.chunkSize {
				// The overlap carry plus this unit still overflows; drop
				// the carry rather than emit an oversized chunk.
				buf = buf[:0]
				bufLen = 0
				n = len(u)
			}
		}
		// A single unit longer than chunkSize still becomes its own chunk;
		// the separator split is the finest granularity we have.
		buf = append(buf, u)
		bufLen += n
	}
	// The buffer always holds at least one unit appended after the last
	// flush, so this never emits a pure-overlap duplicate.
	if len(buf) > 0 {
		chunks = append(chunks, domain.Chunk{
			Text:  strings.Join(buf, c.separator),
			Index: len(chunks),
		})
	}
	return chunks
}

func (c *CharacterChunker) units(text string) []string {
	parts := strings.Split(text, c.separator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
