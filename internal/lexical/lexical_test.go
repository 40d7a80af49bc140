package lexical

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokens_LowercasesAndStrips(t *testing.T) {
	tokens := Tokens("Heart-Failure, NYHA class II!")

	assert.Equal(t, []string{"heart", "failure", "nyha", "class"}, tokens)
}

func TestTokens_DropsShortAndDuplicateTokens(t *testing.T) {
	tokens := Tokens("an MI is an MI is an MI")

	// "an" and "is" are under the length floor, "mi" too.
	assert.Empty(t, tokens)
}

func TestTokens_FirstSeenOrder(t *testing.T) {
	tokens := Tokens("beta alpha beta gamma alpha")

	assert.Equal(t, []string{"beta", "alpha", "gamma"}, tokens)
}

func TestBidirectional_ClosesGroups(t *testing.T) {
	table := Bidirectional(map[string][]string{
		"mi": {"myocardial infarction", "heart attack"},
	})

	assert.ElementsMatch(t, []string{"myocardial infarction", "heart attack"}, table["mi"])
	assert.ElementsMatch(t, []string{"mi", "heart attack"}, table["myocardial infarction"])
	assert.ElementsMatch(t, []string{"mi", "myocardial infarction"}, table["heart attack"])
}

func TestTopicTerms_SingularVariants(t *testing.T) {
	terms := TopicTerms("urinary tract infections", nil)

	assert.Contains(t, terms, "infections")
	assert.Contains(t, terms, "infection")
}

func TestTopicTerms_SynonymExpansion(t *testing.T) {
	synonyms := Bidirectional(map[string][]string{
		"heart attack": {"myocardial infarction"},
	})

	terms := TopicTerms("management of heart attack", synonyms)

	assert.Contains(t, terms, "heart")
	assert.Contains(t, terms, "attack")
	assert.Contains(t, terms, "myocardial infarction")
}

func TestTopicTerms_NoDuplicates(t *testing.T) {
	synonyms := Bidirectional(map[string][]string{
		"sepsis": {"septic shock"},
	})

	terms := TopicTerms("sepsis and septic shock", synonyms)

	seen := make(map[string]int)
	for _, term := range terms {
		seen[term]++
	}
	for term, count := range seen {
		assert.Equal(t, 1, count, "duplicate term %q", term)
	}
}

func TestSectionQuery_KnownSectionUsesHint(t *testing.T) {
	hints := map[string]string{"management": "treatment algorithm and drug therapy"}

	query := SectionQuery("heart failure", "Management", hints)

	assert.Equal(t, "heart failure treatment algorithm and drug therapy", query)
}

func TestSectionQuery_UnknownSectionFallsBackToName(t *testing.T) {
	query := SectionQuery("heart failure", "Controversies", map[string]string{})

	assert.Equal(t, "heart failure controversies", query)
}

func TestSectionQuery_EmptySectionIsTopicOnly(t *testing.T) {
	assert.Equal(t, "heart failure", SectionQuery("heart failure", "", nil))
}

func TestScore_StrongAndWeakTerms(t *testing.T) {
	text := "Empirical antibiotics are indicated in sepsis."

	// "antibiotics" (11 chars) scores 3, "sepsis" (6 chars) scores 3,
	// "are" (3 chars) scores 1, "missing" scores 0.
	score := Score(text, []string{"antibiotics", "sepsis", "are", "missing"})

	assert.Equal(t, 7.0, score)
}

func TestScore_CountsEachTermOnce(t *testing.T) {
	text := "sepsis sepsis sepsis"

	assert.Equal(t, 3.0, Score(text, []string{"sepsis"}))
}

func TestScore_NoMatches(t *testing.T) {
	assert.Equal(t, 0.0, Score("unrelated text", []string{"cardiology"}))
}

func TestNormalizeMinMax_Rescales(t *testing.T) {
	out := NormalizeMinMax([]float64{1, 2, 3})

	require.Len(t, out, 3)
	assert.Equal(t, []float64{0, 0.5, 1}, out)
}

func TestNormalizeMinMax_EqualValuesAreZero(t *testing.T) {
	assert.Equal(t, []float64{0, 0, 0}, NormalizeMinMax([]float64{5, 5, 5}))
}

func TestNormalizeMinMax_Empty(t *testing.T) {
	assert.Empty(t, NormalizeMinMax(nil))
}

func TestNormalizeMinMax_NonFiniteToZero(t *testing.T) {
	out := NormalizeMinMax([]float64{0, math.NaN(), 10})

	assert.Equal(t, 0.0, out[1])
	assert.Equal(t, 1.0, out[2])
}
