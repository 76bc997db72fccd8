package protocol

// VarFormat is the display radix/encoding a selected variable is
// rendered with.
type VarFormat string

const (
	FormatBinary            VarFormat = "binary"
	FormatBinaryWithGroups  VarFormat = "binary_grouped"
	FormatHexadecimal       VarFormat = "hex"
	FormatOctal             VarFormat = "octal"
	FormatSigned            VarFormat = "signed"
	FormatUnsigned          VarFormat = "unsigned"
	FormatASCII             VarFormat = "ascii"
)

// SelectedVariable is one entry in the variable-selection panel.
type SelectedVariable struct {
	UniqueID  string     `json:"uniqueId"` // "file|scope|var"
	Formatter *VarFormat `json:"formatter,omitempty"`
}

// DefaultFormatFor picks a sensible default VarFormat for a signal based
// on its width and name, per the original's format_selection logic
// (supplemented feature, SPEC_FULL §Supplemented Features #3): single-bit
// signals default to Binary; names that look like signed quantities
// default to Signed; everything else defaults to Hexadecimal.
func DefaultFormatFor(sig Signal) VarFormat {
	if sig.WidthBits <= 1 {
		return FormatBinary
	}
	if looksSigned(sig.Name) {
		return FormatSigned
	}
	return FormatHexadecimal
}

func looksSigned(name string) bool {
	lower := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c >= 'A' && c <= 'Z' {
			c = c - 'A' + 'a'
		}
		lower = append(lower, c)
	}
	s := string(lower)
	for _, hint := range []string{"signed", "_s", "int_", "offset"} {
		if containsSubstr(s, hint) {
			return true
		}
	}
	return false
}

func containsSubstr(s, sub string) bool {
	if len(sub) == 0 || len(sub) > len(s) {
		return len(sub) == 0
	}
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}

// SignalValueKind tags which SignalValue variant is populated.
type SignalValueKind int

const (
	ValuePresent SignalValueKind = iota
	ValueMissing
	ValueLoading
)

// SignalValue is the rendered cursor value for one signal.
type SignalValue struct {
	Kind  SignalValueKind `json:"kind"`
	Value string          `json:"value,omitempty"`
}

func Present(v string) SignalValue { return SignalValue{Kind: ValuePresent, Value: v} }
func Missing() SignalValue         { return SignalValue{Kind: ValueMissing} }
func Loading() SignalValue         { return SignalValue{Kind: ValueLoading} }

// SignalTransition is a single value change at a point in time.
type SignalTransition struct {
	TimeNs uint64 `json:"timeNs"`
	Value  string `json:"value"`
}
