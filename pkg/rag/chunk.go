// SPDX-License-Identifier: Apache-2.0

package rag

import "strings"

// chunkText splits text into chunks of at most chunkSize runes, preferring
// paragraph boundaries. Oversized paragraphs are split on rune count.
func chunkText(text string, chunkSize int) []string {
	if chunkSize <= 0 {
		chunkSize = 1000
	}

	var chunks []string
	var current strings.Builder

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			chunks = append(chunks, s)
		}
		current.Reset()
	}

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if len([]rune(para)) > chunkSize {
			flush()
			for _, piece := range splitRunes(para, chunkSize) {
				chunks = append(chunks, piece)
			}
			continue
		}

		// +2 for the paragraph separator we reinsert.
		if current.Len() > 0 && len([]rune(current.String()))+len([]rune(para))+2 > chunkSize {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()

	return chunks
}

func splitRunes(s string, size int) []string {
	runes := []rune(s)
	var out []string
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		piece := strings.TrimSpace(string(runes[start:end]))
		if piece != "" {
			out = append(out, piece)
		}
	}
	return out
}
