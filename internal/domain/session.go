package domain

import (
	"time"

	"github.com/google/uuid"
)

// PhotosPerReel is the number of photos captured in one photobooth session.
const PhotosPerReel = 3

// State is the lifecycle position of a session. It is derived from which
// parts of the record are present, never stored on its own.
type State string

const (
	StateCreated     State = "CREATED"
	StatePhotosReady State = "PHOTOS_READY"
	StateCompleted   State = "COMPLETED"
)

// PhotoSet holds the asset references of the three photos, top to bottom.
type PhotoSet [PhotosPerReel]string

// NewPhotoSet builds a PhotoSet from exactly three non-empty asset ids.
func NewPhotoSet(ids []string) (PhotoSet, error) {
	var set PhotoSet
	if len(ids) != PhotosPerReel {
		return set, InvalidInput("photos.attach", "exactly 3 photo asset ids are required")
	}
	for i, id := range ids {
		if id == "" {
			return set, InvalidInput("photos.attach", "photo asset ids must not be empty")
		}
		set[i] = id
	}
	return set, nil
}

// Slice returns the photo ids as a fresh slice.
func (p PhotoSet) Slice() []string {
	return []string{p[0], p[1], p[2]}
}

// Reel is the outcome of a completed session. Slug, download URL and reel
// asset are assigned together, so they live in one value.
type Reel struct {
	AssetID     string `json:"reel_asset_id"`
	URL         string `json:"url"`
	Slug        string `json:"slug"`
	DownloadURL string `json:"download_url"`
}

// Recipient is the last address pair a notification was attempted for.
type Recipient struct {
	Email *string `json:"email,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

// Session is one photobooth interaction.
type Session struct {
	ID        uuid.UUID
	EventID   *string
	Photos    *PhotoSet
	Reel      *Reel
	Notified  Recipient
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSession returns a fresh session in the CREATED state.
func NewSession(eventID *string, now time.Time) *Session {
	if eventID != nil && *eventID == "" {
		eventID = nil
	}
	return &Session{
		ID:        uuid.New(),
		EventID:   eventID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Session) State() State {
	switch {
	case s.Reel != nil:
		return StateCompleted
	case s.Photos != nil:
		return StatePhotosReady
	default:
		return StateCreated
	}
}

// PhotoAssetIDs returns the attached photos, or an empty slice before attachment.
func (s *Session) PhotoAssetIDs() []string {
	if s.Photos == nil {
		return []string{}
	}
	return s.Photos.Slice()
}

// DownloadPath builds the public download URL for a slug.
func DownloadPath(basePublicURL, slug string) string {
	return trimTrailingSlash(basePublicURL) + "/r/" + slug
}

func trimTrailingSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
