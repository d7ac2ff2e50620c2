package textutil

import "testing"

func TestCosineSimilarityIdenticalText(t *testing.T) {
	a := NewFingerprint("invoice number 2041 amount due 120 euros")
	b := NewFingerprint("invoice number 2041 amount due 120 euros")
	if got := CosineSimilarity(a, b); got < 0.999 {
		t.Fatalf("identical text should score ~1.0, got %f", got)
	}
}

func TestCosineSimilarityNearDuplicate(t *testing.T) {
	a := NewFingerprint("invoice number 2041 amount due 120 euros payment within thirty days")
	b := NewFingerprint("invoice number 2041 amount due 120 euros payment within sixty days")
	got := CosineSimilarity(a, b)
	if got < 0.8 {
		t.Fatalf("near-duplicate text should score high, got %f", got)
	}
	if got >= 0.999 {
		t.Fatalf("different text should not score 1.0, got %f", got)
	}
}

func TestCosineSimilarityUnrelatedText(t *testing.T) {
	a := NewFingerprint("invoice number 2041 amount due")
	b := NewFingerprint("patient discharged after routine examination")
	if got := CosineSimilarity(a, b); got > 0.1 {
		t.Fatalf("unrelated text should score near zero, got %f", got)
	}
}

func TestCosineSimilarityNilSafe(t *testing.T) {
	if got := CosineSimilarity(nil, NewFingerprint("some text here")); got != 0 {
		t.Fatalf("nil fingerprint should score zero, got %f", got)
	}
	if NewFingerprint("  !! ??  ") != nil {
		t.Fatal("tokenless text should produce a nil fingerprint")
	}
}

func TestTokenizeFiltersShortTokens(t *testing.T) {
	tokens := Tokenize("An Invoice of 12 EUR is due")
	for _, token := range tokens {
		if len(token) < 3 {
			t.Fatalf("short token %q should be filtered", token)
		}
	}
	fp := NewFingerprint("invoice invoice invoice")
	if fp.TokenCount() != 1 {
		t.Fatalf("expected one unique token, got %d", fp.TokenCount())
	}
}
