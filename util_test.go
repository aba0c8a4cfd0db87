package lxml

import (
	"testing"

	"github.com/tdewolff/test"
)

func TestCopy(t *testing.T) {
	src := []byte("element")
	dst := Copy(src)
	test.String(t, string(dst), "element")
	src[0] = 'X'
	test.String(t, string(dst), "element", "copy is independent of the source")
}

func TestEqual(t *testing.T) {
	equalTests := []struct {
		a, b  string
		equal bool
	}{
		{"", "", true},
		{"foo", "foo", true},
		{"foo", "Foo", false},
		{"foo", "foob", false},
		{"世界", "世界", true},
		{"世界", "世间", false},
	}
	for _, tt := range equalTests {
		test.That(t, Equal([]byte(tt.a), []byte(tt.b)) == tt.equal, "equality of", tt.a, "and", tt.b)
	}
}
