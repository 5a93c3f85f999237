package reader

// Pixel-to-paper conversion. The reader renders page scans at a browser
// default of 96 CSS pixels per inch; print scale is calibrated against a
// 1080px-wide page mapping to scale 0.4.
const (
	renderDPI = 96.0

	referenceWidthPx = 1080.0
	referenceScale   = 0.4

	// ScaleSentinel means "no explicit scale given, compute one".
	ScaleSentinel = 0.0
)

// PhysicalSize converts pixel dimensions to a paper size in inches.
func PhysicalSize(pxWidth, pxHeight int) (widthIn, heightIn float64) {
	return float64(pxWidth) / renderDPI, float64(pxHeight) / renderDPI
}

// PrintScale computes the print scale for a page of the given pixel width,
// linear in width relative to the calibration reference.
func PrintScale(pxWidth int) float64 {
	return referenceScale * float64(pxWidth) / referenceWidthPx
}

// EffectiveScale returns the explicit scale when the caller supplied one,
// otherwise the computed scale for the detected width.
func EffectiveScale(explicit float64, pxWidth int) float64 {
	if explicit != ScaleSentinel {
		return explicit
	}
	return PrintScale(pxWidth)
}
