package service

import "astroctl/internal/artifact"

// Annotation is one calibration point in the image's native pixel space.
type Annotation struct {
	X int
	Y int

	// Reinforcing is true for the primary pointer button.
	// The wire form is the "left" field.
	Reinforcing bool
}

// Preview is the response of a refinement round-trip.
// A nil image means the artifact is unchanged and must not be redrawn.
type Preview struct {
	Threshold   *float64
	Image       *artifact.Image
	Coordinates *artifact.Image
}

// SolveParams configures one solve invocation.
type SolveParams struct {
	WithElevator        bool
	MinersTimeLimit     float64 // seconds, clamped to [0,300]
	SaturationTimeLimit float64 // seconds, clamped to [0,300]
	MinerBlueprint      string
}

// BlueprintRequest configures blueprint generation for a solved task.
type BlueprintRequest struct {
	TaskID           string
	MinerBlueprint   string
	SolveForFluid    bool
	RemoveIncomplete bool
}

// StatsKind selects which counter set to fetch.
type StatsKind string

const (
	// StatsSolver is the solver counter set.
	StatsSolver StatsKind = "solver"

	// StatsQR is the QR-encoder counter set.
	StatsQR StatsKind = "qr"
)

// StatField is one counter as the backend reported it.
type StatField struct {
	Name string
	// Value is the verbatim textual value.
	Value string
	// Number is set when the value is numeric.
	Number  float64
	Numeric bool
}

// Stats holds counters in payload order.
type Stats struct {
	Fields []StatField
}

// Get returns the field with the given name.
func (s Stats) Get(name string) (StatField, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return StatField{}, false
}

// QR code error correction levels, lowest to highest.
const (
	QRLevelL = "L"
	QRLevelM = "M"
	QRLevelQ = "Q"
	QRLevelH = "H"
)

// QR blueprint types.
const (
	QRBuildings = "building"
	QRPlatforms = "platform"
)

// QRRequest configures QR code generation.
type QRRequest struct {
	Text string
	// Version is the requested symbol version, 1 to 40. The backend may
	// pick a larger one when the text does not fit.
	Version         int
	ErrorCorrection string
	// BlueprintType is used by QRBlueprint only.
	BlueprintType string
}

// QRCode is a rendered QR code.
type QRCode struct {
	Image       artifact.Image
	VersionUsed int
}
