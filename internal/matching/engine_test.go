package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DOUMonitor/internal/config"
	"DOUMonitor/internal/domain"
)

func testEngine() *Engine {
	return NewEngine(config.MatchingConfig{
		MinCaseDigits:  10,
		NameWordRatio:  0.6,
		NameWordFloor:  2,
		NameWordMinLen: 2,
	})
}

func match(t *testing.T, text string, kind domain.TermKind, term string) domain.MatchResult {
	t.Helper()
	pub := domain.Publication{Title: "Edital de intimação", Content: text}
	return testEngine().Match(pub, domain.TrackedTerm{Term: term, Kind: kind})
}

func TestMatchCaseNumberExact(t *testing.T) {
	t.Parallel()

	result := match(t,
		"Processo nº 1234567-89.2024.8.26.0100 em tramitação",
		domain.KindCaseNumber, "1234567-89.2024.8.26.0100")

	require.True(t, result.Matched)
	assert.Equal(t, 1.0, result.Score)
	assert.Equal(t, domain.KindCaseNumber, result.Kind)
}

func TestMatchCaseNumberDigitsOnlyFallback(t *testing.T) {
	t.Parallel()

	// Same digits, different punctuation.
	result := match(t,
		"Autos n. 1.234.567-89.2024.8.26.0100",
		domain.KindCaseNumber, "12345678920248260100")

	require.True(t, result.Matched)
	assert.Equal(t, 0.8, result.Score)
}

func TestMatchCaseNumberShortDigitsNoFallback(t *testing.T) {
	t.Parallel()

	// Under the digit threshold the fallback must not fire.
	result := match(t, "texto contendo 1234567 solto", domain.KindCaseNumber, "1.2.3.4.5.6.7")

	assert.False(t, result.Matched)
	assert.Equal(t, 0.0, result.Score)
}

func TestMatchCaseNumberNoMatch(t *testing.T) {
	t.Parallel()

	result := match(t, "despacho sem relação alguma", domain.KindCaseNumber, "99999999999")

	assert.False(t, result.Matched)
	assert.Equal(t, 0.0, result.Score)
}

func TestMatchPartyNameFull(t *testing.T) {
	t.Parallel()

	result := match(t, "intimação de joão carlos pereira para audiência",
		domain.KindPartyName, "João Carlos Pereira")

	require.True(t, result.Matched)
	assert.Equal(t, 0.7, result.Score)
}

func TestMatchPartyNamePartial(t *testing.T) {
	t.Parallel()

	// 2 of 3 meaningful words present: joão and pereira but not carlos.
	result := match(t, "intimação de joão e de pereira", domain.KindPartyName, "João Carlos Pereira")

	require.True(t, result.Matched)
	assert.Equal(t, 0.5, result.Score)
}

func TestMatchPartyNameSingleWordNoMatch(t *testing.T) {
	t.Parallel()

	result := match(t, "apenas joão aparece aqui", domain.KindPartyName, "João Carlos Pereira")

	assert.False(t, result.Matched)
	assert.Equal(t, 0.0, result.Score)
}

func TestMatchBar(t *testing.T) {
	t.Parallel()

	result := match(t, "advogado dr. fulano, oab/sp 123456", domain.KindBar, "oab/sp 123456")

	require.True(t, result.Matched)
	assert.Equal(t, 0.6, result.Score)
}

func TestMatchBarPlainSubstring(t *testing.T) {
	t.Parallel()

	result := match(t, "registro 123456 do conselho", domain.KindBar, "123456")

	require.True(t, result.Matched)
	assert.Equal(t, 0.6, result.Score)
}

func TestMatchCustom(t *testing.T) {
	t.Parallel()

	matched := match(t, "licitação pregão eletrônico 42", domain.KindCustom, "pregão eletrônico")
	require.True(t, matched.Matched)
	assert.Equal(t, 0.4, matched.Score)

	missed := match(t, "nada a ver", domain.KindCustom, "pregão eletrônico")
	assert.False(t, missed.Matched)
}

func TestMatchIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	pub := domain.Publication{Title: "EDITAL", Content: "INTIMAÇÃO DE MARIA DAS DORES"}
	result := testEngine().Match(pub, domain.TrackedTerm{Term: "maria das dores", Kind: domain.KindPartyName})

	assert.True(t, result.Matched)
}

func TestMatchScoreBounds(t *testing.T) {
	t.Parallel()

	kinds := []domain.TermKind{
		domain.KindCaseNumber, domain.KindPartyName, domain.KindBar, domain.KindCustom,
	}
	texts := []string{"", "nada", "joão carlos pereira 1234567-89.2024.8.26.0100 oab/sp 1"}
	terms := []string{"", "joão carlos pereira", "1234567-89.2024.8.26.0100", "xyz"}

	for _, kind := range kinds {
		for _, text := range texts {
			for _, term := range terms {
				result := match(t, text, kind, term)
				assert.GreaterOrEqual(t, result.Score, 0.0)
				assert.LessOrEqual(t, result.Score, 1.0)
				assert.Equal(t, result.Matched, result.Score > 0,
					"matched must be equivalent to score > 0")
			}
		}
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	cases := []struct {
		title   string
		content string
		want    domain.PubType
	}{
		{"Intimação de parte", "", domain.PubIntimacao},
		{"", "fica a parte citada para citacao", domain.PubCitacao},
		{"Edital de convocação", "", domain.PubEdital},
		{"", "despacho do relator", domain.PubDespacho},
		{"Sentença publicada", "", domain.PubSentenca},
		{"Aviso de credenciamento", "pregão", domain.PubOutro},
		// Substring hit: "licitação" carries "citação".
		{"Aviso de licitação", "pregão", domain.PubCitacao},
		// Order matters: intimação beats edital when both appear.
		{"Edital", "intimação da parte ré", domain.PubIntimacao},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.title, tc.content), "title=%q content=%q", tc.title, tc.content)
	}
}
