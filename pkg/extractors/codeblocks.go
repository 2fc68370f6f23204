package extractors

// CodeBlocks returns up to limit fenced blocks in document order. Each block is
// the exact source span from the opening fence through the closing fence; an
// unterminated block runs to end of input.
func CodeBlocks(text string, limit int) []string {
	if limit <= 0 {
		return nil
	}
	var blocks []string
	for _, seg := range scan(text) {
		if seg.kind != fenceSegment {
			continue
		}
		blocks = append(blocks, seg.span(text))
		if len(blocks) == limit {
			break
		}
	}
	return blocks
}
