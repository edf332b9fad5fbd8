package transcribe

import "strings"

// NormalizeWords guarantees every segment carries word timings. Segments
// keep their native embedded words when present; otherwise words are
// recovered from the flat word list, and as a last resort the segment's
// tokens are evenly distributed across its span.
func NormalizeWords(r *Result) {
	for i := range r.Segments {
		seg := &r.Segments[i]
		if len(seg.Words) > 0 {
			continue
		}

		if words := wordsWithinSpan(r.Words, seg.Start, seg.End); len(words) > 0 {
			seg.Words = words
			continue
		}

		seg.Words = DistributeWords(seg.Text, seg.Start, seg.End)
	}
}

// wordsWithinSpan selects flat-list words whose time range falls fully
// within [start, end].
func wordsWithinSpan(words []Word, start, end float64) []Word {
	var out []Word
	for _, w := range words {
		if w.Start >= start && w.End <= end {
			out = append(out, w)
		}
	}
	return out
}

// DistributeWords evenly spreads a text's tokens across [start, end]:
// word i starts at start + i*span/n. Boundaries are computed from the
// span ends so the words are contiguous and their durations sum to the
// segment duration exactly.
func DistributeWords(text string, start, end float64) []Word {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil
	}

	span := end - start
	n := float64(len(tokens))

	words := make([]Word, len(tokens))
	for i, tok := range tokens {
		words[i] = Word{
			Word:  tok,
			Start: start + float64(i)*span/n,
			End:   start + float64(i+1)*span/n,
		}
	}
	// Pin the last boundary against float drift.
	words[len(words)-1].End = end

	return words
}
