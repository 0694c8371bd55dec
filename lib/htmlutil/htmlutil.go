package htmlutil

import (
	"bytes"
	"litterwatch/lib/textutil"

	"golang.org/x/net/html"
)

// GetText returns the text content of the node. Text from distinct
// child nodes is joined with single spaces, so "Fokker:<br>Jan" comes
// out as "Fokker: Jan" rather than "Fokker:Jan".
func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return textutil.Fold(buffer.String())
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		buffer.WriteString(" ")
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

// CleanText is GetText plus removal of non-printable runes.
func CleanText(node *html.Node) string {
	return textutil.Fold(textutil.StripNonPrint(GetText(node)))
}

// Lines returns the text content of the node one text node at a time,
// trimmed, with empty entries dropped. Markup like <br> or nested spans
// therefore produces separate lines, which matters when the position of
// a line relative to its neighbors carries meaning.
func Lines(node *html.Node) []string {
	var lines []string
	linesRecursive(node, &lines)
	return lines
}

func linesRecursive(node *html.Node, lines *[]string) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		text := textutil.Fold(node.Data)
		if text != "" {
			*lines = append(*lines, text)
		}
		return
	}
	child := node.FirstChild
	for child != nil {
		linesRecursive(child, lines)
		child = child.NextSibling
	}
}
