package xml

import (
	"testing"

	"github.com/tdewolff/test"
)

func TestFreelistReuse(t *testing.T) {
	z := newTestTokenizer(t, "<a/><b/><c/>", DefaultOptions, DefaultLimits())
	var tk Token
	for z.Next(&tk) {
	}
	// siblings close one at a time, so a single parked block serves them all
	test.That(t, len(z.freelist) == 1, "one block parked after the run")
	test.That(t, z.freelistBytes == uint64(z.lims.MaxPerTagBytes), "budget accounting matches")
}

func TestFreelistBlockHomogeneity(t *testing.T) {
	z := newTestTokenizer(t, "<a><b/></a>", DefaultOptions, DefaultLimits())
	var tk Token
	for z.Next(&tk) {
	}
	for _, block := range z.freelist {
		test.That(t, uint32(len(block)) == z.freelistBlock, "every parked block has the freelist size")
	}
}

func TestResetParksOpenFrames(t *testing.T) {
	z := newTestTokenizer(t, "<a><b>", DefaultOptions, DefaultLimits())
	var tk Token
	for z.Next(&tk) {
	}
	test.That(t, z.NestingDepth() > 0, "document ends with open elements")
	z.Reset()
	test.That(t, z.NestingDepth() == 0, "reset empties the stack")
	test.That(t, len(z.freelist) == 2, "open-frame buffers are parked for reuse")
}

func TestErrorArenaStableUntilReset(t *testing.T) {
	z := newTestTokenizer(t, "<a></b>", DefaultOptions, DefaultLimits())
	var tk Token
	var msg []byte
	for z.Next(&tk) {
		if tk.Type == ErrorToken {
			msg = tk.Data
		}
	}
	test.String(t, string(msg), "End tag mismatch", "message readable after iteration ends")
	z.ClearErrors()
	test.String(t, string(msg), "End tag mismatch", "clearing records does not touch the arena")
}
