package embedding

import (
	"math"
	"testing"
)

func TestEmbed_SelfSimilarityIsOne(t *testing.T) {
	vec := Embed("Payment retries run nightly after settlement")
	got := Cosine(vec, vec)
	if math.Abs(got-1.0) > 1e-9 {
		t.Errorf("Cosine(v, v) = %v, want 1.0", got)
	}
}

func TestEmbed_EmptyText(t *testing.T) {
	vec := Embed("   \n\t")
	if len(vec) != 0 {
		t.Errorf("expected empty vector, got %v", vec)
	}
	if got := Cosine(vec, Embed("anything")); got != 0 {
		t.Errorf("Cosine(empty, v) = %v, want 0", got)
	}
}

func TestEmbed_IsNormalized(t *testing.T) {
	vec := Embed("alpha beta beta gamma gamma gamma")
	var sum float64
	for _, w := range vec {
		sum += w * w
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("squared weights sum = %v, want 1.0", sum)
	}
}

func TestCosine_DisjointVocabulary(t *testing.T) {
	if got := Cosine(Embed("apples oranges"), Embed("kernel scheduler")); got != 0 {
		t.Errorf("Cosine(disjoint) = %v, want 0", got)
	}
}

func TestCosine_Symmetry(t *testing.T) {
	a := Embed("refund policy for annual plans")
	b := Embed("the refund policy")
	if x, y := Cosine(a, b), Cosine(b, a); math.Abs(x-y) > 1e-12 {
		t.Errorf("Cosine not symmetric: %v vs %v", x, y)
	}
	if Cosine(a, b) <= 0 {
		t.Errorf("expected positive overlap, got %v", Cosine(a, b))
	}
}

func TestTokens_KeepsApostrophes(t *testing.T) {
	got := Tokens("Don't stop Believing")
	want := []string{"don't", "stop", "believing"}
	if len(got) != len(want) {
		t.Fatalf("Tokens = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
