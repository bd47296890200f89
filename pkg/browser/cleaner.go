package browser

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// PageView is the model-facing rendering of a page: metadata plus a compact
// outline of headings, readable text, and indexed interactive elements.
type PageView struct {
	Title       string
	Description string
	Outline     string
	Truncated   bool
}

// maxTextRun bounds how much of a single text node makes it into the outline.
const maxTextRun = 200

// Simplify parses raw HTML and renders the outline the planner and executor
// see. Interactive elements carry their identifying attributes so the model
// can construct selectors; scripts, styles, and other noise are dropped.
func Simplify(rawHTML string, maxLength int) (*PageView, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	view := &PageView{
		Title:       findTitle(doc),
		Description: findMetaDescription(doc),
	}

	r := &outlineRenderer{maxLength: maxLength}
	r.walk(doc)
	view.Outline = strings.TrimRight(r.b.String(), "\n")
	view.Truncated = r.truncated
	return view, nil
}

// Render produces the full browser-state string handed to the model.
func (v *PageView) Render(url string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "URL: %s\n", url)
	if v.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", v.Title)
	}
	if v.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", v.Description)
	}
	b.WriteString("\n")
	b.WriteString(v.Outline)
	if v.Truncated {
		b.WriteString("\n(page content truncated)")
	}
	return b.String()
}

// outlineRenderer walks the DOM emitting one line per heading, text run, and
// interactive element, numbering the interactive ones.
type outlineRenderer struct {
	b         strings.Builder
	maxLength int
	index     int
	truncated bool
}

func (r *outlineRenderer) walk(n *html.Node) {
	if r.truncated || n.Type == html.CommentNode {
		return
	}

	if n.Type == html.ElementNode {
		tag := strings.ToLower(n.Data)
		if skippedTag(tag) {
			return
		}
		switch tag {
		case "h1", "h2", "h3", "h4", "h5", "h6":
			r.writeLine(strings.Repeat("#", int(tag[1]-'0')) + " " + innerText(n))
			return
		case "a":
			r.writeInteractive(describeLink(n))
			return
		case "button":
			r.writeInteractive(describeButton(n))
			return
		case "input":
			if attrOf(n, "type") == "hidden" {
				return
			}
			r.writeInteractive(describeInput(n))
			return
		case "textarea":
			r.writeInteractive(describeField("textarea", n))
			return
		case "select":
			r.writeInteractive(describeField("select", n))
			return
		case "p", "li", "td", "th", "blockquote", "pre", "label", "span":
			if text := innerText(n); text != "" {
				r.writeLine(text)
			}
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		r.walk(c)
	}
}

func (r *outlineRenderer) writeInteractive(desc string) {
	if desc == "" {
		return
	}
	r.index++
	r.writeLine(fmt.Sprintf("%s [%d]", desc, r.index))
}

func (r *outlineRenderer) writeLine(line string) {
	if line == "" {
		return
	}
	if r.maxLength > 0 && r.b.Len()+len(line) > r.maxLength {
		r.truncated = true
		return
	}
	r.b.WriteString(line)
	r.b.WriteString("\n")
}

func describeLink(n *html.Node) string {
	text := innerText(n)
	href := attrOf(n, "href")
	if text == "" && href == "" {
		return ""
	}
	if href == "" {
		return fmt.Sprintf("link %q", text)
	}
	return fmt.Sprintf("link %q (%s)%s", text, href, idSuffix(n))
}

func describeButton(n *html.Node) string {
	text := innerText(n)
	if text == "" {
		text = attrOf(n, "aria-label")
	}
	return fmt.Sprintf("button %q%s", text, idSuffix(n))
}

func describeInput(n *html.Node) string {
	parts := []string{"input"}
	if t := attrOf(n, "type"); t != "" {
		parts = append(parts, "type="+t)
	}
	if name := attrOf(n, "name"); name != "" {
		parts = append(parts, "name="+name)
	}
	if ph := attrOf(n, "placeholder"); ph != "" {
		parts = append(parts, fmt.Sprintf("placeholder=%q", ph))
	}
	return strings.Join(parts, " ") + idSuffix(n)
}

func describeField(tag string, n *html.Node) string {
	parts := []string{tag}
	if name := attrOf(n, "name"); name != "" {
		parts = append(parts, "name="+name)
	}
	return strings.Join(parts, " ") + idSuffix(n)
}

func idSuffix(n *html.Node) string {
	if id := attrOf(n, "id"); id != "" {
		return " #" + id
	}
	return ""
}

func skippedTag(tag string) bool {
	switch tag {
	case "script", "style", "noscript", "iframe", "embed", "object", "svg", "head":
		return true
	}
	return false
}

func attrOf(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if strings.EqualFold(attr.Key, key) {
			return attr.Val
		}
	}
	return ""
}

// innerText collects the flattened, whitespace-normalized text of a subtree.
func innerText(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
			b.WriteString(" ")
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)

	text := strings.Join(strings.Fields(b.String()), " ")
	if len(text) > maxTextRun {
		text = text[:maxTextRun] + "..."
	}
	return text
}

func findTitle(doc *html.Node) string {
	var title string
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
			title = strings.TrimSpace(n.FirstChild.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)
	return title
}

func findMetaDescription(doc *html.Node) string {
	var description string
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if description != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "meta" &&
			attrOf(n, "name") == "description" {
			description = strings.TrimSpace(attrOf(n, "content"))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)
	return description
}
