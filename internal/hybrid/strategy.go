package hybrid

import "github.com/vritti-ai/invoice-extractor/constants"

// Strategy is the backend plan chosen before any engine is called.
type Strategy string

const (
	// StrategyCloudPrimary calls the cloud engine, falling back to local
	// OCR once for images when the cloud call fails.
	StrategyCloudPrimary Strategy = "CloudPrimary"
	// StrategyLocalPrimary calls local OCR only.
	StrategyLocalPrimary Strategy = "LocalPrimary"
	// StrategyDualCompare runs both engines concurrently and keeps the
	// richer reading.
	StrategyDualCompare Strategy = "DualCompare"
	// StrategyUnavailable means no configured backend can read this
	// document. The orchestrator fails fast without engine calls.
	StrategyUnavailable Strategy = "Unavailable"
)

// decideStrategy picks the backend plan from the document format, its size,
// and which engines are usable. PDFs prefer the cloud engine; with only
// local OCR configured the OCR call runs anyway and surfaces its own
// failure. Oversized images skip DualCompare to avoid doubling the cost of
// a large upload.
func decideStrategy(format string, size int64, cloudEnabled, ocrAvailable bool, dualMaxBytes int64) Strategy {
	switch format {
	case constants.PDF:
		switch {
		case cloudEnabled:
			return StrategyCloudPrimary
		case ocrAvailable:
			return StrategyLocalPrimary
		default:
			return StrategyUnavailable
		}
	case constants.IMAGE:
		switch {
		case cloudEnabled && ocrAvailable && size <= dualMaxBytes:
			return StrategyDualCompare
		case ocrAvailable && (!cloudEnabled || size > dualMaxBytes):
			return StrategyLocalPrimary
		case cloudEnabled:
			return StrategyCloudPrimary
		default:
			return StrategyUnavailable
		}
	default:
		return StrategyUnavailable
	}
}
