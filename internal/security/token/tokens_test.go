package tokens

import "testing"

func TestGenerateOpaqueToken_UniqueAndURLSafe(t *testing.T) {
	a, err := GenerateOpaqueToken(32)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := GenerateOpaqueToken(32)
	if a == b {
		t.Fatal("tokens must differ")
	}
	if len(a) != 43 {
		t.Fatalf("len = %d, want 43", len(a))
	}
}

func TestSHA256Base64URL_Stable(t *testing.T) {
	if SHA256Base64URL("abc") != SHA256Base64URL("abc") {
		t.Fatal("hash must be deterministic")
	}
	if SHA256Base64URL("abc") == SHA256Base64URL("abd") {
		t.Fatal("different inputs must hash differently")
	}
}
