package anomaly

// DefaultDetectors returns the unconditional detector set run on every
// file, mirroring the original implementation's default_detectors()
// factory order. prefix_deviation is deliberately excluded: it only
// joins the pipeline when a prefix template exists for the file, wired
// in separately by the caller via WithPrefixDeviation.
func DefaultDetectors() []Detector {
	return []Detector{
		NewTracebackDetector(),
		NewErrorKeywordDetector(),
		NewWarningKeywordDetector(),
		NewLineLengthSpikeDetector(),
		NewIndentationBlockDetector(),
		NewJSONDumpDetector(),
		NewHighEntropyDetector(),
		NewTimestampGapDetector(),
		NewFormatDeviationDetector(),
	}
}

// WithPrefixDeviation appends a prefix_deviation detector built from the
// given regex to an existing detector set, when the regex compiles.
func WithPrefixDeviation(detectors []Detector, prefixRegex string) []Detector {
	if prefixRegex == "" {
		return detectors
	}
	d, ok := NewPrefixDeviationDetector(prefixRegex)
	if !ok {
		return detectors
	}
	return append(detectors, d)
}
