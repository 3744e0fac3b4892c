package segmentation

// Assign classifies a single trade size into a cohort. It is a pure
// function of the size and the thresholds; every size maps to exactly
// one segment.
//
// The degenerate override (everything Small) takes precedence over the
// size rules, and the all-whales override (everything Whale) is applied
// without consulting Q33/Q66, which are undefined in that case.
func (t Thresholds) Assign(size float64) Segment {
	switch {
	case t.Degenerate:
		return SegmentSmall
	case t.AllWhales:
		return SegmentWhale
	case size >= t.Whale:
		return SegmentWhale
	case size >= t.Q66:
		return SegmentLarge
	case size >= t.Q33:
		return SegmentMedium
	default:
		return SegmentSmall
	}
}

// AssignAll computes thresholds from the trades' sizes and stamps the
// Segment field on every trade, returning the thresholds used.
func AssignAll(trades []Trade) Thresholds {
	sizes := make([]float64, len(trades))
	for i, tr := range trades {
		sizes[i] = tr.Size
	}
	thresholds := ComputeThresholds(sizes)
	for i := range trades {
		trades[i].Segment = thresholds.Assign(trades[i].Size)
	}
	return thresholds
}
