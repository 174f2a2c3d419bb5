// Package template models backend-owned video templates and estimates
// the duration of a video before it is rendered.
package template

import (
	"github.com/reelforge/reelforge-agent/internal/backend"
)

// Scene types that contribute to the estimated duration.
const (
	SceneThumbnail = "thumbnail"
	SceneGrid      = "grid"
	SceneZoom      = "zoom"
)

// EstimateDuration returns the expected length in seconds of a video
// rendered from t with photoCount photos.
//
// Thumbnail and grid scenes run for their fixed duration regardless of
// the photo count. A zoom scene shows each photo in turn, capped at the
// scene's own photo limit, so it contributes
// min(photoCount, scene.MaxPhotos) * scene.Duration. Unknown scene
// types contribute nothing.
func EstimateDuration(t *backend.Template, photoCount int) float64 {
	if t == nil || photoCount < 0 {
		return 0
	}

	var total float64
	for _, scene := range t.Scenes {
		switch scene.Type {
		case SceneThumbnail, SceneGrid:
			total += scene.Duration
		case SceneZoom:
			// Strict min: a scene with a zero photo limit shows no
			// photos and adds nothing.
			n := photoCount
			if n > scene.MaxPhotos {
				n = scene.MaxPhotos
			}
			total += float64(n) * scene.Duration
		}
	}
	return total
}
