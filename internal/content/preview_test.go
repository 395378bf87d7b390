package content

import (
	"testing"
)

func TestText(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"plain", "hello world", "hello world"},
		{"tags", "<p>Hello <b>Go</b></p><p>again</p>", "Hello Goagain"},
		{"whitespace", "<div>\n  a \t b  </div>", "a b"},
		{"script dropped", "<p>x</p><script>alert(1)</script>", "x"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Text(tt.html); got != tt.want {
				t.Errorf("Text() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPreview(t *testing.T) {
	tests := []struct {
		name string
		html string
		max  int
		want string
	}{
		{"short", "<p>short text</p>", 50, "short text"},
		{"cut at word", "<p>the quick brown fox jumps</p>", 12, "the quick…"},
		{"no limit", "<p>a b c</p>", 0, "a b c"},
		{"exact length", "abcde", 5, "abcde"},
		{"multibyte", "héllo wörld again", 11, "héllo wörld…"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Preview(tt.html, tt.max); got != tt.want {
				t.Errorf("Preview() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLinksAndImages(t *testing.T) {
	html := `<p><a href="https://a.example">a</a> <a href="https://b.example">b</a>
<a href="https://a.example">again</a><img src="https://ipfs.example/ipfs/Qm1"></p>`

	links := Links(html)
	if len(links) != 2 || links[0] != "https://a.example" || links[1] != "https://b.example" {
		t.Errorf("Links() = %v", links)
	}

	images := Images(html)
	if len(images) != 1 || images[0] != "https://ipfs.example/ipfs/Qm1" {
		t.Errorf("Images() = %v", images)
	}
}
