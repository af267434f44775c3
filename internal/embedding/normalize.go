package embedding

// Normalize pads or truncates a raw embedding to targetDim. Shorter
// vectors get trailing zeros, longer vectors lose their trailing
// elements. Truncation discards information; that loss is accepted so
// every stored or compared vector has the same length.
func Normalize(raw []float32, targetDim int) []float32 {
	if len(raw) == targetDim {
		return raw
	}

	out := make([]float32, targetDim)
	copy(out, raw)
	return out
}
