package compress

// ZstdDecompressor decodes Zstandard entry data (method 93).
//
// Two implementations exist: a cgo binding with the reference libzstd and a
// pure-Go fallback, selected by the cgo build constraint. Both stream; the
// whole entry is never buffered.
type ZstdDecompressor struct{}

var _ Decompressor = ZstdDecompressor{}
