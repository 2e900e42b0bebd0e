package htmltext

import (
	"strings"
	"testing"
)

func TestDecodeEntities(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Tom &amp; Jerry", "Tom & Jerry"},
		{"&lt;b&gt;", "<b>"},
		{"&quot;quoted&quot;", `"quoted"`},
		{"It&#039;s", "It's"},
		{"Meetup &#8211; June", "Meetup – June"},
		{"A&#8212;B", "A—B"},
		{"&#8216;x&#8217;", "‘x’"},
		{"&#8220;y&#8221;", "“y”"},
		{"wait&#8230;", "wait…"},
		{"&#x41;&#X42;", "AB"},
		{"&#65;", "A"},
		{"&hellip;&ndash;&mdash;", "…–—"},
		{"no entities", "no entities"},
		{"&amp;lt;", "&lt;"},
		{"dangling & ampersand", "dangling & ampersand"},
		{"&unknown;", "&unknown;"},
		{"&#150;", "–"},
		{"&#0;", "�"},
		{"&#xD800;", "�"},
	}
	for _, tc := range cases {
		if got := DecodeEntities(tc.in); got != tc.want {
			t.Errorf("DecodeEntities(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDecodePathsAgree(t *testing.T) {
	pieces := []string{
		"&amp;", "&lt;", "&gt;", "&quot;", "&#039;", "&apos;", "&nbsp;",
		"&#8211;", "&#8212;", "&#8216;", "&#8217;", "&#8220;", "&#8221;", "&#8230;",
		"&ndash;", "&mdash;", "&lsquo;", "&rsquo;", "&ldquo;", "&rdquo;", "&hellip;",
		"&#65;", "&#x263A;", "&#X1F600;", "&#128;", "&#x9d;", "&#0;", "&#xDFFF;",
		"plain", " ", "Vancouver", "한국어",
	}

	// Every pair and a few longer combinations.
	for _, a := range pieces {
		for _, b := range pieces {
			in := a + b
			if got, want := DecodeEntities(in), DecodeEntitiesParser(in); got != want {
				t.Errorf("paths disagree on %q: table=%q parser=%q", in, got, want)
			}
		}
	}
	all := strings.Join(pieces, "")
	if got, want := DecodeEntities(all), DecodeEntitiesParser(all); got != want {
		t.Errorf("paths disagree on joined input: table=%q parser=%q", got, want)
	}
}

func TestStripTags(t *testing.T) {
	in := `<p>Hello <strong>world</strong></p><br/>`
	if got := StripTags(in); got != "Hello world" {
		t.Errorf("StripTags: got %q", got)
	}
}

func TestPlainText(t *testing.T) {
	in := "<p>Join us for coffee &amp; code&#8230; [&hellip;]</p>\n"
	want := "Join us for coffee & code… […]"
	if got := PlainText(in); got != want {
		t.Errorf("PlainText: got %q, want %q", got, want)
	}
}

func TestPlainText_encodedTagsSurvive(t *testing.T) {
	// Tags are stripped before decoding, so encoded markup is shown literally.
	if got := PlainText("&lt;script&gt;"); got != "<script>" {
		t.Errorf("PlainText: got %q", got)
	}
}

func TestTitle(t *testing.T) {
	if got := Title("  WordPress &#8211; Vancouver  "); got != "WordPress – Vancouver" {
		t.Errorf("Title: got %q", got)
	}
}

func TestSanitizer(t *testing.T) {
	s := NewSanitizer()

	out := s.Sanitize(`<p onclick="x()">Hi <script>alert(1)</script><a href="https://wpyvr.org">site</a></p>`)
	if strings.Contains(out, "script") || strings.Contains(out, "onclick") {
		t.Errorf("unsafe markup survived: %q", out)
	}
	if !strings.Contains(out, `target="_blank"`) {
		t.Errorf("expected target=_blank on external link: %q", out)
	}
	if !strings.Contains(out, "<p>") {
		t.Errorf("expected paragraph to survive: %q", out)
	}
	if s.Sanitize("") != "" {
		t.Error("empty input should give empty output")
	}
}
