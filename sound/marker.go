package sound

// Marker is a named, immutable time range inside a shared audio asset.
// Markers are owned by the Sound they were added to; replacing a marker
// by name overwrites the previous one.
type Marker struct {
	Name     string
	Start    float64 // seconds from the beginning of the asset
	Duration float64 // seconds, must be > 0
	Volume   float64 // 0.0 - 1.0
	Loop     bool
}

// Stop returns the marker's end position in seconds.
func (m Marker) Stop() float64 {
	return m.Start + m.Duration
}
