package extract

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"litterwatch/lib/htmlutil"
	"litterwatch/lib/litter"
	"litterwatch/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// verenigingExtractor handles goldenretrieververeniging.nl. The site is
// built with a page builder: each litter sits in a "j-hgrid" container
// holding an <h2> with the kennel name, "j-text" modules with breeder
// and contact details, and "j-table" modules with the dates.
type verenigingExtractor struct{}

var (
	fokkerLine     = regexp.MustCompile(`(?i)Fokker\s*:\s*([^\n]+)`)
	woonplaatsLine = regexp.MustCompile(`(?i)Woonplaats\s*:\s*([^\n]+)`)
	telefoonLine   = regexp.MustCompile(`(?i)Telefoon\s*:\s*(\d[\d\-\s]+)`)

	// Dates appear both written out ("29 augustus 2025") and numeric
	// ("29-08-2025").
	dekdatumNamed   = regexp.MustCompile(`(?i)Dekdatum[:\s]*(\d{1,2}\s+\w+\s+\d{4})`)
	dekdatumNumeric = regexp.MustCompile(`(?i)Dekdatum[:\s]*(\d{1,2}[-/]\d{1,2}[-/]\d{2,4})`)
	geboorteNamed   = regexp.MustCompile(`(?i)Verwachte geboortedatum[:\s]*(\d{1,2}\s+\w+\s+\d{4})`)
	geboorteNumeric = regexp.MustCompile(`(?i)Verwachte geboortedatum[:\s]*(\d{1,2}[-/]\d{1,2}[-/]\d{2,4})`)
)

func (e verenigingExtractor) Extract(ctx context.Context, content string) ([]litter.Litter, error) {
	_, span := tracer.Start(ctx, "vereniging:Extract")
	defer span.End()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse html")
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var litters []litter.Litter
	doc.Find("h2").Each(func(_ int, h2 *goquery.Selection) {
		heading := textutil.Fold(h2.Text())
		if !strings.Contains(heading, "Kennel") && !strings.HasSuffix(heading, ":") {
			return
		}
		l, ok := e.parseKennel(h2, heading)
		if ok {
			litters = append(litters, l)
		}
	})

	span.SetAttributes(attribute.Int("litters", len(litters)))
	return litters, nil
}

func (e verenigingExtractor) parseKennel(h2 *goquery.Selection, heading string) (litter.Litter, bool) {
	var l litter.Litter
	if strings.Contains(heading, "Kennel") {
		if v := labelValue(heading); v != "" {
			l.KennelName = v
		} else {
			l.KennelName = heading
		}
	}

	// The whole entry lives in the enclosing grid container, not in the
	// h2's siblings.
	container := h2.Closest(`[class*="j-hgrid"]`)
	if container.Length() == 0 {
		container = h2.Closest(`[id*="cc-matrix"]`)
	}
	if container.Length() == 0 {
		return litter.Litter{}, false
	}

	l.RawText = htmlutil.GetText(container.Get(0))

	container.Find(`[class*="j-text"]`).Each(func(_ int, module *goquery.Selection) {
		e.applyTextModule(&l, htmlutil.Lines(module.Get(0)))
	})
	container.Find(`[class*="j-table"]`).Each(func(_ int, module *goquery.Selection) {
		e.applyTableModule(&l, htmlutil.GetText(module.Get(0)))
	})

	if !litter.Identifiable(l) {
		return litter.Litter{}, false
	}
	return l, true
}

// applyTextModule pulls breeder and contact details out of one j-text
// module. The first value found wins, entries never repeat a field.
func (e verenigingExtractor) applyTextModule(l *litter.Litter, lines []string) {
	text := strings.Join(lines, "\n")

	if l.Breeder == "" {
		if m := fokkerLine.FindStringSubmatch(text); m != nil {
			l.Breeder = strings.TrimSpace(m[1])
		}
	}
	if l.Location == "" {
		if m := woonplaatsLine.FindStringSubmatch(text); m != nil {
			l.Location = strings.TrimSpace(m[1])
		}
	}
	if l.Phone == "" {
		if m := telefoonLine.FindStringSubmatch(text); m != nil {
			l.Phone = strings.TrimSpace(m[1])
		}
	}
	if l.Email == "" && strings.Contains(text, "E-mail") {
		l.Email = emailPattern.FindString(text)
	}
	if l.Website == "" && strings.Contains(text, "Website") {
		l.Website = strings.TrimSpace(sitePattern.FindString(text))
	}

	e.applyDogNames(l, lines)
}

// Dog names on this site are printed in capitals with the parentage in
// parentheses on the following line. The first such name is taken as
// the sire and the second as the dam; the layout does not guarantee
// that order, so downstream treats these as best-effort enrichment.
func (e verenigingExtractor) applyDogNames(l *litter.Litter, lines []string) {
	for i, line := range lines {
		if !isShoutedName(line) {
			continue
		}
		if i+1 >= len(lines) || !strings.Contains(lines[i+1], "(") {
			continue
		}
		dog := truncateRunes(line+" "+lines[i+1], 200)
		if l.MaleDog == "" {
			l.MaleDog = dog
		} else if l.FemaleDog == "" {
			l.FemaleDog = dog
		}
	}
}

// Health-result lines ("HEUPEN HD-A") are shouted too; filter the usual
// suspects before treating a line as a dog name.
var dogNameNoise = []string{"HEUPEN", "ELLEBOGEN", "DNA", "SHOW", "WERK", "OGEN"}

func isShoutedName(line string) bool {
	if len(line) <= 5 {
		return false
	}
	for _, noise := range dogNameNoise {
		if strings.Contains(line, noise) {
			return false
		}
	}
	hasUpper := false
	for _, r := range line {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			hasUpper = true
		}
	}
	return hasUpper
}

func (e verenigingExtractor) applyTableModule(l *litter.Litter, text string) {
	if l.MatingDate == "" {
		l.MatingDate = firstMatch(text, dekdatumNamed, dekdatumNumeric)
	}
	if l.ExpectedDate == "" {
		l.ExpectedDate = firstMatch(text, geboorteNamed, geboorteNumeric)
	}
}

func firstMatch(text string, patterns ...*regexp.Regexp) string {
	for _, p := range patterns {
		if m := p.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}
