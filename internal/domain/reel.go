package domain

import "image"

// Layout is the geometry of a reel: photos stacked vertically on a white
// canvas with a uniform margin around and between them.
type Layout struct {
	PhotoWidth  int
	PhotoHeight int
	Margin      int
}

// DefaultLayout is the canonical reel geometry (880x1960).
var DefaultLayout = Layout{
	PhotoWidth:  800,
	PhotoHeight: 600,
	Margin:      40,
}

func (l Layout) FinalWidth() int {
	return l.PhotoWidth + 2*l.Margin
}

func (l Layout) FinalHeight() int {
	return PhotosPerReel*l.PhotoHeight + (PhotosPerReel+1)*l.Margin
}

// OffsetY is the top edge of photo i on the canvas.
func (l Layout) OffsetY(i int) int {
	return i*l.PhotoHeight + (i+1)*l.Margin
}

// Slot is the rectangle photo i occupies on the canvas.
func (l Layout) Slot(i int) image.Rectangle {
	origin := image.Pt(l.Margin, l.OffsetY(i))
	return image.Rectangle{Min: origin, Max: origin.Add(image.Pt(l.PhotoWidth, l.PhotoHeight))}
}

// Strategy names the approach that produced a reel.
type Strategy string

const (
	StrategyRemoteTransform Strategy = "remote_transform"
	StrategyLocalComposite  Strategy = "local_composite"
)

// GeneratedReel is what the reel generator hands back to the lifecycle.
type GeneratedReel struct {
	AssetID  string
	URL      string
	Strategy Strategy
}

// RemoteReelAssetID is the derived identifier of a reel rendered on the fly
// from baseAssetID.
func RemoteReelAssetID(baseAssetID string) string {
	return baseAssetID + "_reel"
}
