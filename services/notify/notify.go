// Package notify fans out announcements of newly seen litters to the
// configured channels.
package notify

import (
	"context"
	"errors"
	"log/slog"

	"litterwatch/lib/litter"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("services/notify")

// Notifier delivers the announcement of one newly detected litter.
// screenshotPath points at a page screenshot when one was captured and
// is empty otherwise.
type Notifier interface {
	NotifyNew(ctx context.Context, l litter.Litter, screenshotPath string) error
}

// Multi fans an announcement out to every configured notifier. A
// failing channel never stops the remaining ones.
type Multi []Notifier

func (m Multi) NotifyNew(ctx context.Context, l litter.Litter, screenshotPath string) error {
	var errlist []error
	for _, n := range m {
		err := n.NotifyNew(ctx, l, screenshotPath)
		if err != nil {
			errlist = append(errlist, err)
		}
	}
	return errors.Join(errlist...)
}

// Log announces new litters to the service log only. It is the
// always-on fallback channel.
type Log struct{}

func (Log) NotifyNew(ctx context.Context, l litter.Litter, screenshotPath string) error {
	slog.InfoContext(ctx, "new litter detected",
		"source", l.Source,
		"url", l.SourceURL,
		"kennel", l.KennelName,
		"breeder", l.Breeder,
		"mating_date", l.MatingDate,
		"expected_date", l.ExpectedDate,
	)
	return nil
}

type field struct {
	Label string
	Value string
}

// fields returns the non-empty litter fields in display order.
func fields(l litter.Litter) []field {
	all := []field{
		{"Source", l.Source},
		{"URL", l.SourceURL},
		{"Kennel", l.KennelName},
		{"Breeder", l.Breeder},
		{"Location", l.Location},
		{"Mating Date", l.MatingDate},
		{"Expected Date", l.ExpectedDate},
		{"Male (Reu)", l.MaleDog},
		{"Female (Teef)", l.FemaleDog},
		{"Phone", l.Phone},
		{"Email", l.Email},
		{"Website", l.Website},
	}
	var present []field
	for _, f := range all {
		if f.Value != "" {
			present = append(present, f)
		}
	}
	return present
}
