package domain

import "fmt"

// AspectRatio es una de las relaciones de aspecto aceptadas por el backend de imagenes.
type AspectRatio string

const (
	AspectSquare    AspectRatio = "1:1"
	AspectPortrait  AspectRatio = "3:4"
	AspectLandscape AspectRatio = "4:3"
	AspectWide      AspectRatio = "16:9"
	AspectTall      AspectRatio = "9:16"
)

// ParseAspectRatio valida un valor textual contra el enum soportado.
func ParseAspectRatio(raw string) (AspectRatio, error) {
	switch ar := AspectRatio(raw); ar {
	case AspectSquare, AspectPortrait, AspectLandscape, AspectWide, AspectTall:
		return ar, nil
	default:
		return "", fmt.Errorf("unsupported aspect ratio %q", raw)
	}
}

// GeneratedImage es una imagen producida por el modelo y guardada en disco.
// Bytes solo se conserva hasta que el Image Store la persiste.
type GeneratedImage struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
	Bytes    []byte `json:"-"`
}
