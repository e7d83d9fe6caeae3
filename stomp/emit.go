package stomp

// Emit produces the canonical wire representation of f: command, EOL, each
// header as "name:value" EOL in insertion order, a blank EOL, the body,
// and a terminating NUL. No surrounding whitespace is added anywhere.
func (f *Frame) Emit() []byte {
	size := len(f.Command) + 1
	for _, h := range f.headers {
		size += len(h.name) + 1 + len(h.value) + 1
	}
	size += 1 + len(f.Body) + 1

	buf := make([]byte, 0, size)
	buf = append(buf, f.Command...)
	buf = append(buf, eol)
	for _, h := range f.headers {
		buf = append(buf, h.name...)
		buf = append(buf, ':')
		buf = append(buf, h.value...)
		buf = append(buf, eol)
	}
	buf = append(buf, eol)
	buf = append(buf, f.Body...)
	buf = append(buf, nul)
	return buf
}
