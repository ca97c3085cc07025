package color

import "math"

// TransferKind tags a TransferFunction's shape, replacing the
// original function-pointer-valued transfer with a closed tagged
// union matching how Pipeline serializes the rest of its ops.
type TransferKind int

const (
	TransferLinear TransferKind = iota
	TransferSRGB
	TransferRec709
	TransferPQ
	TransferLog
	TransferGamma
)

// PQ constants per SMPTE ST 2084.
const (
	pqM1 = 2610.0 / 16384.0
	pqM2 = 2523.0 / 4096.0 * 128.0
	pqC1 = 3424.0 / 4096.0
	pqC2 = 2413.0 / 4096.0 * 32.0
	pqC3 = 2392.0 / 4096.0 * 32.0
)

// TransferFunction is a scalar encode/decode curve: Eval maps
// scene-linear to encoded (OETF-style) and EvalInverse maps encoded
// back to scene-linear (EOTF-style). A Pipeline's TransferIn op calls
// EvalInverse (decode to linear) and TransferOut calls Eval (encode
// from linear) — see applyOp.
type TransferFunction struct {
	Kind TransferKind
	// Gamma is used only when Kind == TransferGamma.
	Gamma float32
	// LogRefWhite, LogRefBlack parametrize TransferLog as a
	// Cineon-style log curve; the log base is fixed at 10.
	LogRefWhite float32
	LogRefBlack float32
}

// Linear returns the identity transfer function.
func Linear() TransferFunction { return TransferFunction{Kind: TransferLinear} }

// SRGB returns the sRGB transfer function (IEC 61966-2-1).
func SRGB() TransferFunction { return TransferFunction{Kind: TransferSRGB} }

// Rec709 returns the ITU-R BT.709 transfer function.
func Rec709() TransferFunction { return TransferFunction{Kind: TransferRec709} }

// PQ returns the SMPTE ST 2084 perceptual quantizer transfer function.
func PQ() TransferFunction { return TransferFunction{Kind: TransferPQ} }

// Gamma returns a pure power-law transfer function with the given
// exponent: Eval(linear) = linear^(1/gamma).
func Gamma(gamma float32) TransferFunction {
	return TransferFunction{Kind: TransferGamma, Gamma: gamma}
}

// Log returns a Cineon-style log transfer function with the given
// reference black/white codes in [0,1].
func Log(refBlack, refWhite float32) TransferFunction {
	return TransferFunction{Kind: TransferLog, LogRefBlack: refBlack, LogRefWhite: refWhite}
}

// Eval encodes a scene-linear value (OETF direction).
func (t TransferFunction) Eval(linear float32) float32 {
	switch t.Kind {
	case TransferSRGB:
		return srgbOETF(linear)
	case TransferRec709:
		return rec709OETF(linear)
	case TransferPQ:
		return pqOETF(linear)
	case TransferGamma:
		return gammaOETF(linear, t.Gamma)
	case TransferLog:
		return logEncode(linear, t.LogRefBlack, t.LogRefWhite)
	default:
		return linear
	}
}

// EvalInverse decodes an encoded value back to scene-linear (EOTF
// direction).
func (t TransferFunction) EvalInverse(encoded float32) float32 {
	switch t.Kind {
	case TransferSRGB:
		return srgbEOTF(encoded)
	case TransferRec709:
		return rec709EOTF(encoded)
	case TransferPQ:
		return pqEOTF(encoded)
	case TransferGamma:
		return gammaEOTF(encoded, t.Gamma)
	case TransferLog:
		return logDecode(encoded, t.LogRefBlack, t.LogRefWhite)
	default:
		return encoded
	}
}

func srgbOETF(c float32) float32 {
	if c <= 0.0031308 {
		return 12.92 * c
	}
	return float32(1.055*math.Pow(float64(c), 1.0/2.4) - 0.055)
}

func srgbEOTF(c float32) float32 {
	if c <= 0.04045 {
		return c / 12.92
	}
	return float32(math.Pow((float64(c)+0.055)/1.055, 2.4))
}

func rec709OETF(c float32) float32 {
	if c < 0.018 {
		return 4.5 * c
	}
	return float32(1.099*math.Pow(float64(c), 0.45) - 0.099)
}

func rec709EOTF(c float32) float32 {
	if c < 0.081 {
		return c / 4.5
	}
	return float32(math.Pow((float64(c)+0.099)/1.099, 1/0.45))
}

// pqOETF encodes scene-linear (normalized so 1.0 == 10000 nits) to the
// PQ-encoded signal.
func pqOETF(linear float32) float32 {
	if linear < 0 {
		linear = 0
	}
	lp := math.Pow(float64(linear), pqM1)
	num := pqC1 + pqC2*lp
	den := 1 + pqC3*lp
	return float32(math.Pow(num/den, pqM2))
}

func pqEOTF(encoded float32) float32 {
	ep := math.Pow(float64(encoded), 1/pqM2)
	num := ep - pqC1
	if num < 0 {
		num = 0
	}
	den := pqC2 - pqC3*ep
	if den <= 0 {
		return 0
	}
	return float32(math.Pow(num/den, 1/pqM1))
}

func gammaOETF(linear float32, gamma float32) float32 {
	if linear <= 0 {
		return 0
	}
	return float32(math.Pow(float64(linear), 1/float64(gamma)))
}

func gammaEOTF(encoded float32, gamma float32) float32 {
	if encoded <= 0 {
		return 0
	}
	return float32(math.Pow(float64(encoded), float64(gamma)))
}

func logEncode(linear float32, refBlack, refWhite float32) float32 {
	const refExposure = 0.18
	if linear < 1e-10 {
		linear = 1e-10
	}
	logVal := float32(math.Log10(float64(linear/refExposure))) * 300.0 / 1023.0
	return refBlack + logVal*(refWhite-refBlack)
}

func logDecode(encoded float32, refBlack, refWhite float32) float32 {
	const refExposure = 0.18
	span := refWhite - refBlack
	if span == 0 {
		span = 1
	}
	logVal := (encoded - refBlack) / span
	return refExposure * float32(math.Pow(10, float64(logVal)*1023.0/300.0))
}
