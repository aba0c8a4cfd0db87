package xml

// Tag-scoped storage. Every open element owns one fixed-capacity buffer; the
// element's name and all of its attribute bytes land in it, so the token
// slices handed out for that element keep aliasing one backing array until
// the element closes. The buffer is never reallocated once handed to a frame.
type tagBuffer struct {
	mem  []byte // length Limits.MaxPerTagBytes once allocated, nil before first append
	used uint32
}

// tagContext tracks offsets within the owning tagBuffer.
type tagContext struct {
	nameOff   uint32
	nameLen   uint32
	attrCount uint16
}

// tagFrame is one entry of the open-element stack.
type tagFrame struct {
	buf   tagBuffer
	ctx   tagContext
	start Position
}

// badOff marks a failed append.
const badOff = ^uint32(0)

// freelistBudget bounds the memory parked in the tag-buffer freelist. Once
// the budget is spent, popped buffers are dropped for the collector instead.
const freelistBudget = 64 << 20

// pushTagFrame opens a new element frame recording where it started. It
// reports false when the stack already holds MaxOpenDepth frames.
func (z *Tokenizer) pushTagFrame(start Position) bool {
	if len(z.stack) >= int(z.lims.MaxOpenDepth) {
		return false
	}
	z.stack = append(z.stack, tagFrame{start: start})
	return true
}

// popTagFrame closes the top frame, parking its buffer on the freelist when
// eligible.
func (z *Tokenizer) popTagFrame() {
	n := len(z.stack) - 1
	z.parkBuffer(z.stack[n].buf.mem)
	z.stack[n] = tagFrame{}
	z.stack = z.stack[:n]
}

func (z *Tokenizer) topFrame() *tagFrame {
	if len(z.stack) == 0 {
		return nil
	}
	return &z.stack[len(z.stack)-1]
}

// parkBuffer moves a tag buffer to the freelist if it matches the current
// block size and the budget allows; otherwise it is left to the collector.
func (z *Tokenizer) parkBuffer(mem []byte) {
	if mem == nil || uint32(len(mem)) != z.freelistBlock {
		return
	}
	if z.freelistBytes+uint64(len(mem)) > freelistBudget {
		return
	}
	z.freelist = append(z.freelist, mem)
	z.freelistBytes += uint64(len(mem))
}

// ensureTagBuffer allocates the frame's buffer on first use, preferring a
// same-size freelist block.
func (z *Tokenizer) ensureTagBuffer(f *tagFrame) {
	if f.buf.mem != nil {
		return
	}
	if n := len(z.freelist); n > 0 {
		f.buf.mem = z.freelist[n-1]
		z.freelist[n-1] = nil
		z.freelist = z.freelist[:n-1]
		z.freelistBytes -= uint64(len(f.buf.mem))
	} else {
		f.buf.mem = make([]byte, z.lims.MaxPerTagBytes)
	}
	f.buf.used = 0
}

// appendTagBytes appends p into the frame's buffer, returning the starting
// offset, or badOff when the per-tag capacity would be exceeded.
func (z *Tokenizer) appendTagBytes(f *tagFrame, p []byte) uint32 {
	z.ensureTagBuffer(f)
	if uint64(f.buf.used)+uint64(len(p)) > uint64(len(f.buf.mem)) {
		return badOff
	}
	off := f.buf.used
	copy(f.buf.mem[off:], p)
	f.buf.used += uint32(len(p))
	return off
}

// internError copies msg into the append-only error arena, NUL-terminated,
// and returns a capacity-capped slice excluding the terminator. The slice
// stays valid and unchanged until Reset.
func (z *Tokenizer) internError(msg string) []byte {
	off := len(z.errArena)
	z.errArena = append(z.errArena, msg...)
	z.errArena = append(z.errArena, 0)
	return z.errArena[off : off+len(msg) : off+len(msg)]
}
