package models

import "strings"

// ExtractedSection is one labeled group of fragments. len(Items) <= Cap always.
type ExtractedSection struct {
	Label string   `json:"label,omitempty" yaml:"label,omitempty"`
	Items []string `json:"items" yaml:"items"`
	Cap   int      `json:"cap" yaml:"cap"`
}

// NewSection builds a section, dropping items beyond cap.
func NewSection(label string, items []string, limit int) ExtractedSection {
	if limit < 0 {
		limit = 0
	}
	if len(items) > limit {
		items = items[:limit]
	}
	return ExtractedSection{Label: label, Items: items, Cap: limit}
}

// Digest is the size-bounded output handed to the caller.
type Digest struct {
	Sections       []ExtractedSection `json:"sections" yaml:"sections"`
	UsedFallback   bool               `json:"used_fallback" yaml:"used_fallback"`
	UsedTruncation bool               `json:"used_truncation" yaml:"used_truncation"`
}

// IsEmpty reports whether no section carries any non-blank item.
func (d Digest) IsEmpty() bool {
	for _, s := range d.Sections {
		for _, item := range s.Items {
			if strings.TrimSpace(item) != "" {
				return false
			}
		}
	}
	return true
}

// Labels lists section labels in output order.
func (d Digest) Labels() []string {
	labels := make([]string, 0, len(d.Sections))
	for _, s := range d.Sections {
		labels = append(labels, s.Label)
	}
	return labels
}

// Render produces the markdown text of the digest. Unlabeled sections are written
// verbatim so a fallback document is reproduced exactly.
func (d Digest) Render() string {
	var sb strings.Builder
	for i, s := range d.Sections {
		if len(s.Items) == 0 {
			continue
		}
		if i > 0 && sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		if s.Label != "" {
			sb.WriteString("## ")
			sb.WriteString(s.Label)
			sb.WriteString("\n\n")
		}
		sb.WriteString(strings.Join(s.Items, "\n\n"))
	}
	return sb.String()
}
