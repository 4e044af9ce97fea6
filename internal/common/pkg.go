package common

// UnknownStr is the display name used for out-of-range enum values.
const UnknownStr = "unknown"
