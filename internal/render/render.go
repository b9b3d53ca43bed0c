// Package render turns recommendation envelopes into the HTML fragment shown
// in a page's result area.
package render

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"bookrec/internal/client"
)

// ProductURLPrefix is the product page every title links to.
const ProductURLPrefix = "https://www.amazon.com/dp/"

// Heading introduces the rendered list.
const Heading = "Recommended Books:"

// FailureMessage is shown for every transport or parse failure.
const FailureMessage = "Error Request"

var listTmpl = template.Must(template.New("recommendations").Parse(
	`<h3>{{.Heading}}</h3><ul>` +
		`{{range .Items}}<li><strong><a href="{{.URL}}">{{.Title}}</a></strong><br>` +
		`Price: {{.Price}}<br>` +
		`Rating: {{.Rating}}<br>` +
		`Reviews: {{.Reviews}}<br>` +
		`Category: {{.Category}}</li>{{end}}` +
		`</ul>`))

type item struct {
	URL      string
	Title    string
	Price    string
	Rating   string
	Reviews  string
	Category string
}

// fragmentPolicy allows exactly the markup the list template produces.
var fragmentPolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("h3", "ul", "li", "strong", "br")
	p.AllowAttrs("href").OnElements("a")
	p.AllowURLSchemes("https")
	p.RequireParseableURLs(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}()

// ProductURL returns the product page for asin, path-escaped.
func ProductURL(asin string) string {
	return ProductURLPrefix + url.PathEscape(asin)
}

// Recommendations renders the heading and one list item per book. Every
// backend string is escaped as text; the result is then passed through an
// allow-list sanitizer.
func Recommendations(books []client.Book) (template.HTML, error) {
	items := make([]item, 0, len(books))
	for _, b := range books {
		items = append(items, item{
			URL:      ProductURL(b.ASIN.String()),
			Title:    b.Title.String(),
			Price:    b.FinalPrice.String(),
			Rating:   b.Rating.String(),
			Reviews:  b.ReviewsCount.String(),
			Category: b.MainCategory.String(),
		})
	}

	var buf bytes.Buffer
	err := listTmpl.Execute(&buf, struct {
		Heading string
		Items   []item
	}{Heading, items})
	if err != nil {
		return "", fmt.Errorf("render recommendations: %w", err)
	}
	return template.HTML(fragmentPolicy.SanitizeBytes(buf.Bytes())), nil
}

var textBreaks = strings.NewReplacer(
	"<br>", "\n", "<br/>", "\n", "<br />", "\n",
	"</h3>", "\n", "<li>", "\n- ", "</ul>", "\n",
)

// Text converts a rendered fragment to plain text for terminal pages.
func Text(fragment template.HTML) string {
	stripped := bluemonday.StrictPolicy().Sanitize(textBreaks.Replace(string(fragment)))
	lines := strings.Split(html.UnescapeString(stripped), "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}
