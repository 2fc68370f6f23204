// Package parser turns HTML documentation payloads into the markdown-like text
// the extractors understand.
package parser

import (
	"bufio"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

// baseURL only anchors relative links; the payload never came from a browser.
var baseURL = &url.URL{Scheme: "https", Host: "docs.invalid", Path: "/"}

var htmlSniff = regexp.MustCompile(`(?is)^\s*(?:<!doctype\s+html|<html[\s>]|<head[\s>]|<body[\s>])`)

// LooksLikeHTML reports whether text starts like an HTML document. Markdown
// that merely contains inline tags is left alone.
func LooksLikeHTML(text string) bool {
	return htmlSniff.MatchString(text)
}

// Normalize isolates the main content with readability and then renders the
// blocks we care about: headings as "#" lines, paragraphs and list items as
// prose, <pre> as fenced code with its language tag, tables as pipe rows.
func Normalize(html string) (string, error) {
	original, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	langs := codeLanguages(original)

	root := original.Selection
	readabilityParser := readability.NewParser()
	article, err := readabilityParser.Parse(strings.NewReader(html), baseURL)
	if err == nil && strings.TrimSpace(article.Content) != "" {
		clean, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content))
		if err != nil {
			return "", fmt.Errorf("failed to parse readable content: %w", err)
		}
		root = clean.Selection
	}

	blocks := render(root, langs)
	if len(blocks) == 0 && root != original.Selection {
		// readability can drop short pages down to nothing useful
		blocks = render(original.Selection, langs)
	}

	var title string
	if err == nil {
		title = normalizeText(article.Title)
	}
	if title != "" && (len(blocks) == 0 || !strings.HasPrefix(blocks[0], "# ")) {
		blocks = append([]string{"# " + title}, blocks...)
	}
	return strings.Join(blocks, "\n\n"), nil
}

func render(root *goquery.Selection, langs map[string]string) []string {
	var blocks []string
	root.Find("h1,h2,h3,h4,h5,h6,p,li,table,pre").Each(func(i int, s *goquery.Selection) {
		// nested matches are rendered by their outermost block
		if s.ParentsFiltered("pre,table,li").Length() > 0 && goquery.NodeName(s) != "li" {
			return
		}

		switch tag := goquery.NodeName(s); tag {
		case "pre":
			if code := renderCode(s, langs); code != "" {
				blocks = append(blocks, code)
			}
		case "table":
			if table := renderTable(s); table != "" {
				blocks = append(blocks, table)
			}
		case "li":
			if text := normalizeText(s.Text()); text != "" {
				blocks = append(blocks, "- "+text)
			}
		case "p":
			if text := normalizeText(s.Text()); text != "" {
				blocks = append(blocks, text)
			}
		default:
			if text := normalizeText(s.Text()); text != "" {
				blocks = append(blocks, strings.Repeat("#", int(tag[1]-'0'))+" "+text)
			}
		}
	})
	return blocks
}

// codeLanguages maps code text to its language class. readability strips class
// attributes, so the tags are collected from the untouched document first.
func codeLanguages(doc *goquery.Document) map[string]string {
	langs := make(map[string]string)
	doc.Find("pre").Each(func(i int, pre *goquery.Selection) {
		code := strings.TrimSpace(pre.Text())
		if code == "" {
			return
		}
		if lang := languageOf(pre.Find("code").First()); lang != "" {
			langs[code] = lang
		} else if lang := languageOf(pre); lang != "" {
			langs[code] = lang
		}
	})
	return langs
}

func languageOf(s *goquery.Selection) string {
	class, _ := s.Attr("class")
	for _, c := range strings.Fields(class) {
		for _, prefix := range []string{"language-", "lang-"} {
			if strings.HasPrefix(c, prefix) {
				return strings.TrimPrefix(c, prefix)
			}
		}
	}
	return ""
}

func renderCode(s *goquery.Selection, langs map[string]string) string {
	code := strings.Trim(s.Text(), "\n")
	if strings.TrimSpace(code) == "" {
		return ""
	}
	fence := "```"
	for strings.Contains(code, fence) {
		fence += "`"
	}
	return fence + langs[strings.TrimSpace(code)] + "\n" + code + "\n" + fence
}

func renderTable(s *goquery.Selection) string {
	var rows []string
	s.Find("tr").Each(func(i int, tr *goquery.Selection) {
		var cells []string
		tr.Find("th,td").Each(func(j int, cell *goquery.Selection) {
			cells = append(cells, normalizeText(cell.Text()))
		})
		if len(cells) > 0 {
			rows = append(rows, "| "+strings.Join(cells, " | ")+" |")
		}
	})
	return strings.Join(rows, "\n")
}

// normalizeText cleans up a string by trimming space and removing excess newlines.
func normalizeText(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	scanner := bufio.NewScanner(strings.NewReader(input))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			b.WriteString(line)
			b.WriteString(" ")
		}
	}
	return strings.TrimSpace(b.String())
}
