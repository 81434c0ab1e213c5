// Package chunker splits extracted document text into overlapping,
// bounded-size segments for embedding and retrieval.
package chunker

import (
	"strings"

	"github.com/google/uuid"

	"medichat-go/internal/model"
)

// Default window parameters, matching the ingestion pipeline defaults.
const (
	DefaultMaxSize = 1000
	DefaultOverlap = 200
)

// Chunk scans text left to right with a sliding window of maxSize
// characters. When the window's right edge falls strictly inside the text,
// the cut is moved back to the nearest space after the window start so
// words are not split. Empty segments after trimming are skipped; indices
// are assigned sequentially over emitted chunks only.
//
// The next window starts at max(start+maxSize-overlap, cut). The max()
// guarantees strict progress even when overlap >= maxSize, so the scan
// always terminates.
func Chunk(text, sourceFile string, maxSize, overlap int) []model.TextChunk {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if overlap < 0 {
		overlap = 0
	}

	runes := []rune(text)
	var chunks []model.TextChunk
	chunkIndex := 0

	for start := 0; start < len(runes); {
		end := start + maxSize
		if end < len(runes) {
			if lastSpace := lastSpaceBefore(runes, start, end); lastSpace > start {
				end = lastSpace
			}
		} else {
			end = len(runes)
		}

		content := strings.TrimSpace(string(runes[start:end]))
		if content != "" {
			chunks = append(chunks, model.TextChunk{
				ChunkID:    uuid.NewString(),
				Content:    content,
				ChunkIndex: chunkIndex,
				SourceFile: sourceFile,
			})
			chunkIndex++
		}

		next := start + maxSize - overlap
		if next < end {
			next = end
		}
		start = next
	}

	return chunks
}

// lastSpaceBefore returns the index of the last space in runes[start:end),
// or -1 when there is none.
func lastSpaceBefore(runes []rune, start, end int) int {
	for i := end - 1; i >= start; i-- {
		if runes[i] == ' ' {
			return i
		}
	}
	return -1
}
