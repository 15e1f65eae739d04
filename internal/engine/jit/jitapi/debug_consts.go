package jitapi

// These consts gate diagnostic output of the jit package. Instead of scattering
// "where do I flip on tracing" decisions across every file, they live here so a
// debugging session only has to edit one place.

// ----- Debug logging -----
// These consts must be disabled by default. Enable them only when debugging.

const (
	FrontEndLoggingEnabled = false
	IRLoggingEnabled       = false
)

// ----- Output prints -----

const (
	// PrintIR dumps the constructed IR function to the translator's logger at
	// debug level once TranslateMethod has built it.
	PrintIR = false
)

// ----- Validations -----
// These consts must be enabled by default until the translator has seen
// significant fuzzing mileage.

const (
	EvalStackValidationEnabled = true
)
