// Package geo holds the geographic model shared by the motion controllers
// and the navigator: vehicle positions, great-circle distance, the parking
// facility catalogue and straight route lines.
//
// Positions are plain latitude/longitude pairs in decimal degrees. Distance
// and GeoJSON output delegate to github.com/paulmach/orb, which expects
// points as [longitude, latitude]; Position.Point does that conversion.
package geo
