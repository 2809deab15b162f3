package types

// Version is the canonical project version shared by the CLI and the
// frame stream wire format.
const Version = "0.3.0"
