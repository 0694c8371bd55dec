package extract

import (
	"context"
	"testing"

	"litterwatch/lib/telemetry"

	"github.com/stretchr/testify/require"
)

const clubPage = `<html><body>
<h2>Verwachte nesten</h2>
<p>Hieronder vindt u de verwachte nesten van onze leden.</p>
<h2>Van de Gouden Velden</h2>
<p>Fokker: J. Jansen</p>
<p>Woonplaats: Apeldoorn</p>
<p>Gedekt: 12-08-2025</p>
<p>Verwacht: 14-10-2025</p>
<p>Reu: Ch. Sunny Boy van het Bos</p>
<p>Teef: Golden Lady van de Gouden Velden</p>
<p>Telefoon: 055-1234567</p>
<p>Email: jansen@kennelvelden.nl</p>
<p>Website: www.kennelvelden.nl</p>
<h2>Hof ter Duinen</h2>
<p>Fokker: P. de Boer</p>
<p>Gedekt: 01-09-2025</p>
</body></html>`

func TestClubExtract(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:extract")
	defer cleanup()

	litters, err := clubExtractor{}.Extract(context.Background(), clubPage)
	require.NoError(t, err)
	require.Len(t, litters, 2)

	first := litters[0]
	require.Equal(t, "Van de Gouden Velden", first.KennelName)
	require.Equal(t, "J. Jansen", first.Breeder)
	require.Equal(t, "Apeldoorn", first.Location)
	require.Equal(t, "12-08-2025", first.MatingDate)
	require.Equal(t, "14-10-2025", first.ExpectedDate)
	require.Equal(t, "Ch. Sunny Boy van het Bos", first.MaleDog)
	require.Equal(t, "Golden Lady van de Gouden Velden", first.FemaleDog)
	require.Equal(t, "055-1234567", first.Phone)
	require.Equal(t, "jansen@kennelvelden.nl", first.Email)
	require.Equal(t, "www.kennelvelden.nl", first.Website)
	require.Contains(t, first.RawText, "Fokker: J. Jansen")

	second := litters[1]
	require.Equal(t, "Hof ter Duinen", second.KennelName)
	require.Equal(t, "P. de Boer", second.Breeder)
	require.Equal(t, "01-09-2025", second.MatingDate)
}

func TestClubExtractToleratesLabelTypos(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:extract")
	defer cleanup()

	page := `<html><body>
<h2>Nest van de Hoge Duinen</h2>
<p>Foker: M. Visser</p>
<p>Verwacht: 02-11-2025</p>
</body></html>`

	litters, err := clubExtractor{}.Extract(context.Background(), page)
	require.NoError(t, err)
	require.Len(t, litters, 1)
	require.Equal(t, "M. Visser", litters[0].Breeder)
	require.Equal(t, "02-11-2025", litters[0].ExpectedDate)
}

const verenigingPage = `<html><body>
<div class="j-hgrid layout">
  <div id="cc-matrix-4711" class="cc-m-all">
    <h2>Kennel : Of the Golden Meadow</h2>
    <div class="j-module n j-text">
      <p>Fokker : J. de Vries</p>
      <p>Woonplaats : Utrecht</p>
      <p>Telefoon : 06-12345678</p>
    </div>
    <div class="j-module n j-text">
      <p>E-mail : info@goldenmeadow.nl</p>
    </div>
    <div class="j-module n j-text">
      <p>Website : www.goldenmeadow.nl</p>
    </div>
    <div class="j-module n j-text">
      <p>MOONLIGHT SERENADE OF THE VALLEY<br>(Ch. Golden Boy x Sweet Lady)</p>
      <p>AMBER QUEEN VAN DE HOEVE<br>(Ch. Storm x Misty)</p>
    </div>
    <div class="j-module n j-table">
      <table>
        <tr><td>Dekdatum</td><td>29 augustus 2025</td></tr>
        <tr><td>Verwachte geboortedatum</td><td>30 oktober 2025</td></tr>
      </table>
    </div>
  </div>
</div>
<div class="j-hgrid layout">
  <div id="cc-matrix-4712" class="cc-m-all">
    <h2>Over de vereniging</h2>
    <div class="j-module n j-text"><p>Algemene informatie zonder nestgegevens.</p></div>
  </div>
</div>
</body></html>`

func TestVerenigingExtract(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:extract")
	defer cleanup()

	litters, err := verenigingExtractor{}.Extract(context.Background(), verenigingPage)
	require.NoError(t, err)
	require.Len(t, litters, 1)

	l := litters[0]
	require.Equal(t, "Of the Golden Meadow", l.KennelName)
	require.Equal(t, "J. de Vries", l.Breeder)
	require.Equal(t, "Utrecht", l.Location)
	require.Equal(t, "06-12345678", l.Phone)
	require.Equal(t, "info@goldenmeadow.nl", l.Email)
	require.Equal(t, "www.goldenmeadow.nl", l.Website)
	require.Equal(t, "29 augustus 2025", l.MatingDate)
	require.Equal(t, "30 oktober 2025", l.ExpectedDate)
	require.Equal(t, "MOONLIGHT SERENADE OF THE VALLEY (Ch. Golden Boy x Sweet Lady)", l.MaleDog)
	require.Equal(t, "AMBER QUEEN VAN DE HOEVE (Ch. Storm x Misty)", l.FemaleDog)
	require.Contains(t, l.RawText, "Dekdatum")
}

func TestVerenigingNumericDates(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:extract")
	defer cleanup()

	page := `<html><body>
<div class="j-hgrid">
  <h2>Kennel : Hoeve de Berk</h2>
  <div class="j-text"><p>Fokker : K. Smit</p></div>
  <div class="j-table"><table>
    <tr><td>Dekdatum</td><td>29-08-2025</td></tr>
    <tr><td>Verwachte geboortedatum</td><td>30-10-2025</td></tr>
  </table></div>
</div>
</body></html>`

	litters, err := verenigingExtractor{}.Extract(context.Background(), page)
	require.NoError(t, err)
	require.Len(t, litters, 1)
	require.Equal(t, "29-08-2025", litters[0].MatingDate)
	require.Equal(t, "30-10-2025", litters[0].ExpectedDate)
}

func TestRegistryLookup(t *testing.T) {
	registry := NewRegistry()

	{
		ex, source := registry.Lookup("https://www.goldenretrieverclub.nl/pupinformatie/verwachte-nesten")
		require.IsType(t, clubExtractor{}, ex)
		require.Equal(t, "Golden Retriever Club Nederland", source)
	}
	{
		ex, source := registry.Lookup("https://www.goldenretrieververeniging.nl/pupinformatie/verwachte-nesten/")
		require.IsType(t, verenigingExtractor{}, ex)
		require.Equal(t, "Golden Retriever Vereniging", source)
	}
	{
		ex, source := registry.Lookup("https://example.org/nesten")
		require.IsType(t, clubExtractor{}, ex)
		require.Equal(t, "example.org", source)
	}
}

func TestHasLabel(t *testing.T) {
	require.True(t, hasLabel("Fokker: J. Jansen", "Fokker"))
	require.True(t, hasLabel("Foker: M. Visser", "Fokker"))
	require.True(t, hasLabel("telefoon nummer", "Telefoon"))
	require.False(t, hasLabel("Hotel Amsterdam", "Telefoon"))
	require.False(t, hasLabel("Hieronder de nesten", "Fokker"))
}
