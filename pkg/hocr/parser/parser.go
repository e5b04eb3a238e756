// Package parser extracts positioned words from Tesseract hOCR output.
//
// hOCR is HTML, and Tesseract's output is not guaranteed to be well-formed
// XML, so the walk is built on golang.org/x/net/html rather than
// encoding/xml. Words are numbered by their position in the
// block/paragraph/line hierarchy as the document is traversed.
package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// BBox holds hOCR bbox coordinates: x1 y1 is the top-left corner,
// x2 y2 the bottom-right.
type BBox struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Word is one ocrx_word element with its position in the page hierarchy.
type Word struct {
	Text       string  `json:"text"`
	BBox       BBox    `json:"bbox"`
	Confidence float64 `json:"confidence"`
	BlockNum   int     `json:"block_num"`
	ParNum     int     `json:"par_num"`
	LineNum    int     `json:"line_num"`
	WordNum    int     `json:"word_num"`
}

// Page carries the page-level bbox so callers can recover image dimensions.
type Page struct {
	BBox  BBox
	Words []Word
}

var (
	bboxRe = regexp.MustCompile(`bbox\s+(-?\d+)\s+(-?\d+)\s+(-?\d+)\s+(-?\d+)`)
	confRe = regexp.MustCompile(`x_wconf\s+(\d+(?:\.\d+)?)`)
)

// Parse reads an hOCR document and returns the first page with its words in
// document order.
func Parse(hocr string) (Page, error) {
	doc, err := html.Parse(strings.NewReader(hocr))
	if err != nil {
		return Page{}, fmt.Errorf("failed to parse hOCR: %w", err)
	}

	var page Page
	w := walker{page: &page}
	w.walk(doc)
	return page, nil
}

// ParseWords is a convenience wrapper returning only the words.
func ParseWords(hocr string) ([]Word, error) {
	page, err := Parse(hocr)
	if err != nil {
		return nil, err
	}
	return page.Words, nil
}

type walker struct {
	page     *Page
	block    int
	par      int
	line     int
	word     int
	pageSeen bool
}

func (w *walker) walk(n *html.Node) {
	if n.Type == html.ElementNode {
		switch hocrClass(n) {
		case "ocr_page":
			// Only the first page is read; Tesseract emits one per image.
			if !w.pageSeen {
				w.pageSeen = true
				w.page.BBox, _ = parseBBox(attr(n, "title"))
			}
		case "ocr_carea":
			w.block++
			w.par = 0
			w.line = 0
		case "ocr_par":
			w.par++
			w.line = 0
		case "ocr_line", "ocr_caption", "ocr_header", "ocr_textfloat":
			w.line++
			w.word = 0
		case "ocrx_word":
			w.word++
			if word, ok := w.parseWord(n); ok {
				w.page.Words = append(w.page.Words, word)
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
}

func (w *walker) parseWord(n *html.Node) (Word, bool) {
	text := strings.TrimSpace(textContent(n))
	if text == "" {
		return Word{}, false
	}

	title := attr(n, "title")
	bbox, ok := parseBBox(title)
	if !ok {
		return Word{}, false
	}

	word := Word{
		Text:     text,
		BBox:     bbox,
		BlockNum: w.block,
		ParNum:   w.par,
		LineNum:  w.line,
		WordNum:  w.word,
	}
	if m := confRe.FindStringSubmatch(title); len(m) == 2 {
		word.Confidence, _ = strconv.ParseFloat(m[1], 64)
	}
	return word, true
}

func hocrClass(n *html.Node) string {
	for _, c := range strings.Fields(attr(n, "class")) {
		if strings.HasPrefix(c, "ocr") {
			return c
		}
	}
	return ""
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
	}
	return b.String()
}

func parseBBox(title string) (BBox, bool) {
	m := bboxRe.FindStringSubmatch(title)
	if len(m) != 5 {
		return BBox{}, false
	}
	x1, _ := strconv.Atoi(m[1])
	y1, _ := strconv.Atoi(m[2])
	x2, _ := strconv.Atoi(m[3])
	y2, _ := strconv.Atoi(m[4])
	return BBox{X1: x1, Y1: y1, X2: x2, Y2: y2}, true
}
