// Package record defines the JSON documents of a dataset:
//
//   - Record: results/<id>.json, read and written by the tool
//   - ImageMetadata: metadata/<id>.json, an optional read-only description
//   - Export: the standalone <stem>_extracted_survival_time_points.json
//
// Keys that a Record or its Metadata do not know about are kept when the
// document is decoded and written back, so files touched by other tools
// survive a round trip.
package record
