package extractor

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// The news markup carries no stable attributes linking a heading to its
// items or a label to its value; both relations are positional. All
// positional traversal lives here so a markup change surfaces as a
// MarkupDriftError from one place.

// MarkupDriftError reports markup that no longer has the expected shape
type MarkupDriftError struct {
	Where  string
	Detail string
}

func (e *MarkupDriftError) Error() string {
	return fmt.Sprintf("markup drift in %s: %s", e.Where, e.Detail)
}

// Section is a heading and the element directly following it
type Section struct {
	Heading string
	Body    *goquery.Selection
}

// ScanSections pairs every heading that is a direct child of container with
// its next element sibling. Headings nested deeper, e.g. inside an item body,
// are not sections. Headings without a sibling are skipped and reported.
func ScanSections(container *goquery.Selection, headingSelector string) ([]Section, error) {
	if container.Length() == 0 {
		return nil, &MarkupDriftError{Where: "sections", Detail: "container not found"}
	}

	var sections []Section
	var drift error
	container.ChildrenFiltered(headingSelector).Each(func(_ int, heading *goquery.Selection) {
		body := heading.Next()
		title := strings.TrimSpace(heading.Text())
		if body.Length() == 0 {
			drift = &MarkupDriftError{Where: "sections", Detail: fmt.Sprintf("heading %q has no following element", title)}
			return
		}
		sections = append(sections, Section{Heading: title, Body: body})
	})

	return sections, drift
}

// LabeledField is a label element paired with the element directly after it
type LabeledField struct {
	Label string
	Value *goquery.Selection
}

// Following returns the n element siblings after the value
func (f LabeledField) Following(n int) ([]*goquery.Selection, error) {
	out := make([]*goquery.Selection, 0, n)
	cur := f.Value
	for i := 0; i < n; i++ {
		cur = cur.Next()
		if cur.Length() == 0 {
			return nil, &MarkupDriftError{
				Where:  "label " + f.Label,
				Detail: fmt.Sprintf("expected %d elements after the value, found %d", n, i),
			}
		}
		out = append(out, cur)
	}
	return out, nil
}

// ScanLabels walks the labels matched inside block in document order and
// pairs each with its next element sibling. Label text is trimmed and a
// trailing colon dropped. Labels without a value are skipped and reported.
func ScanLabels(block *goquery.Selection, labelSelector string) ([]LabeledField, error) {
	if block.Length() == 0 {
		return nil, &MarkupDriftError{Where: "labels", Detail: "label block not found"}
	}

	var fields []LabeledField
	var drift error
	block.Find(labelSelector).Each(func(_ int, label *goquery.Selection) {
		text := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(label.Text()), ":"))
		value := label.Next()
		if value.Length() == 0 {
			drift = &MarkupDriftError{Where: "labels", Detail: fmt.Sprintf("label %q has no value", text)}
			return
		}
		fields = append(fields, LabeledField{Label: text, Value: value})
	})

	return fields, drift
}
