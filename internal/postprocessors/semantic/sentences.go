package semantic

import "strings"

// sentenceSpan is one sentence of a document, tracked as a byte range so
// that chunk contents are exact substrings of the original: concatenating
// every span in order reproduces the document content byte-for-byte.
type sentenceSpan struct {
	// start and end bound the span in the document content, end exclusive.
	// The span includes the sentence terminator and any whitespace that
	// follows it, up to the start of the next sentence.
	start int
	end   int

	// text is the trimmed sentence used for embedding.
	text string
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func isTerminator(b byte) bool {
	return b == '.' || b == '!' || b == '?'
}

// splitSpans partitions content into sentence spans. A sentence ends at a
// terminator (., !, ?) that is followed by whitespace or end of input;
// mid-token punctuation ("3.14", "v1.2") does not split. Trailing text
// without a terminator forms a final sentence. The spans cover content
// completely and without overlap.
func splitSpans(content string) []sentenceSpan {
	var spans []sentenceSpan
	n := len(content)
	start := 0

	i := 0
	for i < n {
		if isTerminator(content[i]) && (i+1 >= n || isSpace(content[i+1])) {
			j := i + 1
			for j < n && isSpace(content[j]) {
				j++
			}
			spans = appendSpan(spans, content, start, j)
			start = j
			i = j
			continue
		}
		i++
	}
	if start < n {
		spans = appendSpan(spans, content, start, n)
	}

	return spans
}

// appendSpan adds the range [start, end) as a sentence. A range that trims
// to nothing (whitespace only) is folded into its neighbour so every span
// carries embeddable text.
func appendSpan(spans []sentenceSpan, content string, start, end int) []sentenceSpan {
	text := strings.TrimSpace(content[start:end])
	if text == "" {
		if len(spans) > 0 {
			spans[len(spans)-1].end = end
			return spans
		}
		// Leading whitespace before the first sentence: widen whichever
		// span comes next by returning a placeholder the caller extends.
		return append(spans, sentenceSpan{start: start, end: end, text: ""})
	}
	if len(spans) > 0 && spans[len(spans)-1].text == "" {
		// Absorb a leading whitespace placeholder.
		prev := spans[len(spans)-1]
		spans[len(spans)-1] = sentenceSpan{start: prev.start, end: end, text: text}
		return spans
	}
	return append(spans, sentenceSpan{start: start, end: end, text: text})
}
