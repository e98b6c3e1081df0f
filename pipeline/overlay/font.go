package overlay

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"
)

// fontDirectories maps language codes to the per-language font directory.
// Each directory is expected to hold a SansSerif-Regular.ttf.
var fontDirectories = map[string]string{
	"zh": "Chinese",
	"ja": "Japanese",
	"ko": "Korean",
	"en": "English",
}

// FontProvider hands out a parsed truetype font per target language. CJK
// targets need their own font files since the embedded fallback only covers
// Latin glyphs; languages without a bundled file fall back to Go Regular so
// layout still measures and renders something legible.
type FontProvider struct {
	fallback   *truetype.Font
	byLanguage map[string]*truetype.Font
}

// NewFontProvider loads per-language fonts from basePath. An empty basePath
// or a missing per-language file is not an error; those languages use the
// embedded fallback.
func NewFontProvider(basePath string) (*FontProvider, error) {
	fallback, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded fallback font: %w", err)
	}

	fp := &FontProvider{
		fallback:   fallback,
		byLanguage: make(map[string]*truetype.Font),
	}
	if basePath == "" {
		return fp, nil
	}

	for language, directory := range fontDirectories {
		font, err := parseFontFile(filepath.Join(basePath, directory, "SansSerif-Regular.ttf"))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to load %s font: %w", directory, err)
		}
		fp.byLanguage[language] = font
	}
	return fp, nil
}

// FontForLanguage returns the font for the given language code, or the
// fallback when no per-language font was loaded.
func (fp *FontProvider) FontForLanguage(language string) *truetype.Font {
	if font, ok := fp.byLanguage[language]; ok {
		return font
	}
	return fp.fallback
}

func parseFontFile(path string) (*truetype.Font, error) {
	fontBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return truetype.Parse(fontBytes)
}
