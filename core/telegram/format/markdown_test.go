package format

import "testing"

func TestMarkdownEscapesEntityMarkers(t *testing.T) {
	cases := map[string]string{
		"12.5 °C, light rain in London": "12.5 °C, light rain in London",
		"snake_case":                    `snake\_case`,
		"*bold* [link]":                 `\*bold\* \[link]`,
		"a`b":                           "a\\`b",
		"1.5 (ok)!":                     "1.5 (ok)!",
	}
	for in, want := range cases {
		if got := Markdown(in); got != want {
			t.Errorf("Markdown(%q) = %q, want %q", in, got, want)
		}
	}
}
