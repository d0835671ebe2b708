// Package sampler extracts the bounded audio payload sent to the recognition
// service.
//
// HeadSampler reads the leading bytes of a file. WAVWindowSampler decodes WAV
// input with go-audio and sends a window from the middle of the track instead.
// Missing files and directories map to services.ErrNotFound; every other read
// failure, including an empty file, maps to services.ErrSampleRead.
package sampler
