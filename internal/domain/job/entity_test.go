package job

import "testing"

func TestID_StableAndURLOnly(t *testing.T) {
	a := RawJob{Title: "Graphic Designer", URL: "https://x/1"}
	b := RawJob{Title: "Senior Graphic Designer", URL: "https://x/1"}
	c := RawJob{Title: "Graphic Designer", URL: "https://x/2"}

	if ID(a) != ID(a) {
		t.Fatalf("id not stable across calls")
	}
	if ID(a) != ID(b) {
		t.Fatalf("same url must yield same id regardless of title")
	}
	if ID(a) == ID(c) {
		t.Fatalf("different urls must yield different ids")
	}
}

func TestID_TrimsURLWhitespace(t *testing.T) {
	a := RawJob{URL: "https://x/1"}
	b := RawJob{URL: "  https://x/1 "}
	if ID(a) != ID(b) {
		t.Fatalf("surrounding whitespace must not change identity")
	}
}

func TestValid(t *testing.T) {
	if Valid(RawJob{Title: "x", URL: ""}) {
		t.Fatalf("empty url must be invalid")
	}
	if Valid(RawJob{Title: " ", URL: "https://x/1"}) {
		t.Fatalf("blank title must be invalid")
	}
	if !Valid(RawJob{Title: "x", URL: "https://x/1"}) {
		t.Fatalf("expected valid job")
	}
}
