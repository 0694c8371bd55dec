package extract

import (
	"context"
	"fmt"
	"strings"

	"litterwatch/lib/htmlutil"
	"litterwatch/lib/litter"
	"litterwatch/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// clubExtractor handles goldenretrieverclub.nl and doubles as the
// generic fallback. The page uses an <h2> per litter with free-form
// labeled lines below it, repeated until the next <h2>.
type clubExtractor struct{}

func (e clubExtractor) Extract(ctx context.Context, content string) ([]litter.Litter, error) {
	_, span := tracer.Start(ctx, "club:Extract")
	defer span.End()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse html")
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var litters []litter.Litter
	doc.Find("h2").Each(func(_ int, h2 *goquery.Selection) {
		l, ok := e.parseEntry(h2)
		if ok {
			litters = append(litters, l)
		}
	})

	span.SetAttributes(attribute.Int("litters", len(litters)))
	return litters, nil
}

func (e clubExtractor) parseEntry(h2 *goquery.Selection) (litter.Litter, bool) {
	l := litter.Litter{KennelName: textutil.Fold(h2.Text())}

	var rawParts []string
	h2.NextUntil("h2").Each(func(_ int, sibling *goquery.Selection) {
		text := htmlutil.GetText(sibling.Get(0))
		if text == "" {
			return
		}
		rawParts = append(rawParts, text)
		e.applyFields(&l, text)
	})
	l.RawText = strings.Join(rawParts, " ")

	// Entries without a single defining field are navigation headers
	// or prose, not litters.
	if !litter.Identifiable(l) {
		return litter.Litter{}, false
	}
	return l, true
}

// applyFields scans one text chunk for every known field label. A label
// found in a later chunk overwrites an earlier value, matching how the
// site repeats corrected details further down an entry.
func (e clubExtractor) applyFields(l *litter.Litter, text string) {
	if hasLabel(text, "Gedekt") {
		if d := dateNear(text, "Gedekt"); d != "" {
			l.MatingDate = d
		}
	}
	if hasLabel(text, "Fokker") || hasLabel(text, "Breeder") {
		if v := labelValue(text); v != "" {
			l.Breeder = v
		}
	}
	if hasLabel(text, "Verwacht") {
		if d := dateNear(text, "Verwacht"); d != "" {
			l.ExpectedDate = d
		}
	}
	if hasLabel(text, "Woonplaats") || hasLabel(text, "Plaats") {
		if v := labelValue(text); v != "" {
			l.Location = v
		}
	}
	if hasLabel(text, "Telefoon") || strings.Contains(text, "Tel") {
		if m := phonePattern.FindString(text); m != "" {
			l.Phone = m
		}
	}
	if strings.Contains(text, "@") || hasLabel(text, "E-mail") {
		if m := emailPattern.FindString(text); m != "" {
			l.Email = m
		}
	}
	lowered := strings.ToLower(text)
	if hasLabel(text, "Website") || strings.Contains(lowered, "www.") || strings.Contains(lowered, "http") {
		if m := sitePattern.FindString(lowered); m != "" {
			l.Website = m
		}
	}
	if strings.Contains(text, "Reu") && strings.Contains(text, ":") {
		if v := labelValue(text); v != "" {
			l.MaleDog = v
		}
	}
	if strings.Contains(text, "Teef") && strings.Contains(text, ":") {
		if v := labelValue(text); v != "" {
			l.FemaleDog = v
		}
	}
}
