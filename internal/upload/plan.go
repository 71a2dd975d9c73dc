package upload

// DefaultChunkSize matches the part size the API presigns for.
const DefaultChunkSize int64 = 5 * 1024 * 1024

// Part is one byte range of the source file.
type Part struct {
	Number int
	Offset int64
	Length int64
}

// Plan splits size bytes into ceil(size/chunk) parts. Every part but the
// last is exactly chunk bytes; the last takes the remainder. An empty file
// still gets a single zero-length part.
func Plan(size, chunk int64) []Part {
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}
	n := 1
	if size > 0 {
		n = int((size + chunk - 1) / chunk)
	}

	parts := make([]Part, n)
	for i := range parts {
		off := int64(i) * chunk
		length := chunk
		if i == n-1 {
			length = size - chunk*int64(n-1)
		}
		if length < 0 {
			length = 0
		}
		parts[i] = Part{Number: i + 1, Offset: off, Length: length}
	}
	return parts
}
