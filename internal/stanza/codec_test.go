package stanza

import (
	"strings"
	"testing"
)

func TestEncodeLine(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "Intro line.\n", want: "Intro line.\n¶"},
		{name: "no newline", in: "last", want: "last"},
		{name: "tab", in: "a\tb\n", want: "a\n\tb\n¶"},
		{name: "literal pilcrow", in: "x¶y\n", want: "x\\¶y\n¶"},
		{name: "blank", in: "\n", want: "\n¶"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := EncodeLine(tc.in); got != tc.want {
				t.Fatalf("EncodeLine(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestDecodeLine(t *testing.T) {
	cases := map[string]string{
		"Intro line.\n": "Intro line.",
		"¶":             "\n",
		"¶First\n":      "\nFirst",
		`x\¶y`:          "x¶y",
		`\\¶`:           `\¶`,
		"\tb":           "\tb",
	}
	for in, want := range cases {
		if got := DecodeLine(in); got != want {
			t.Fatalf("DecodeLine(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRoundTripLines(t *testing.T) {
	lines := []string{
		"Intro line.\n",
		"\tindented with\ttabs\t\n",
		"a pilcrow ¶ in the middle and \\¶ an escaped one\n",
		"trailing backslash \\\n",
		"windows line\r\n",
		"  leading and trailing spaces  \n",
		strings.Repeat("word ", 40) + "\n",
		strings.Repeat("x", 200) + "\n",
		"no terminator",
		"\n",
		"Été à Noël, ünïcödé\n",
	}
	for _, line := range lines {
		w := wrapper{width: 72}
		wrapped := w.wrap(EncodeLine(line))
		if got := DecodeText(wrapped); got != line {
			t.Fatalf("round trip of %q produced %q (wrapped %q)", line, got, wrapped)
		}
	}
}

func TestWrapBreaksBeforeOverflowingChunk(t *testing.T) {
	if got := Wrap("aaa bbb ccc", 7); got != "aaa bbb\n ccc" {
		t.Fatalf("unexpected wrap: %q", got)
	}
	if got := Wrap("ab abcdefghij", 4); got != "ab \nabcdefghij" {
		t.Fatalf("unexpected wrap of long token: %q", got)
	}
	if got := Wrap("abcdefghij", 4); got != "abcdefghij" {
		t.Fatalf("long token at line start must stay whole: %q", got)
	}
}

func TestWrapKeepsPhysicalLinesWithinWidth(t *testing.T) {
	text := EncodeLine(strings.Repeat("lorem ipsum dolor ", 30) + "\n")
	wrapped := Wrap(text, 72)
	for _, physical := range strings.Split(wrapped, "\n") {
		if len(physical) > 72 {
			t.Fatalf("physical line exceeds width: %d %q", len(physical), physical)
		}
	}
	if DecodeText(wrapped) != DecodeText(text) {
		t.Fatal("wrapping changed the decoded content")
	}
}

func TestWrapperCarriesColumnAcrossCalls(t *testing.T) {
	w := wrapper{width: 10}
	first := w.wrap("abcdefgh")
	second := w.wrap(" ij")
	if first != "abcdefgh" || second != " \nij" {
		t.Fatalf("unexpected carry-over wrap: %q then %q", first, second)
	}
	w.reset()
	if got := w.wrap("ij"); got != "ij" {
		t.Fatalf("expected reset column, got %q", got)
	}
}
