package render

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
)

// FontResolver maps style font families to drawable faces. Resolution
// walks a ranked chain: the bundled font directory, the storage font
// directory, a short list of common system font locations, and finally a
// built-in bitmap face. The bitmap fallback never fails, it only degrades
// visual fidelity.
type FontResolver struct {
	bundledDir string
	storageDir string

	mu     sync.Mutex
	parsed map[string]*opentype.Font // keyed by family
	faces  map[faceKey]font.Face
}

type faceKey struct {
	family string
	size   int
}

// NewFontResolver creates a resolver over the configured font directories.
func NewFontResolver(bundledDir, storageDir string) *FontResolver {
	return &FontResolver{
		bundledDir: bundledDir,
		storageDir: storageDir,
		parsed:     make(map[string]*opentype.Font),
		faces:      make(map[faceKey]font.Face),
	}
}

// fontFiles maps a style font family to candidate file names, most
// specific first. Metric-compatible substitutes cover the common
// proprietary families on Linux hosts.
var fontFiles = map[string][]string{
	"Arial":                 {"Arial.ttf", "arial.ttf", "LiberationSans-Regular.ttf", "DejaVuSans.ttf"},
	"Arial Black":           {"Arial_Black.ttf", "ariblk.ttf", "LiberationSans-Bold.ttf", "DejaVuSans-Bold.ttf"},
	"Arial Rounded MT Bold": {"ARLRDBD.ttf", "LiberationSans-Bold.ttf", "DejaVuSans-Bold.ttf"},
	"Helvetica":             {"Helvetica.ttf", "LiberationSans-Regular.ttf", "DejaVuSans.ttf"},
	"Impact":                {"Impact.ttf", "impact.ttf", "LiberationSans-Bold.ttf", "DejaVuSans-Bold.ttf"},
	"Courier New":           {"Courier_New.ttf", "cour.ttf", "LiberationMono-Regular.ttf", "DejaVuSansMono.ttf"},
}

// genericFiles is tried for families missing from fontFiles.
var genericFiles = []string{"DejaVuSans.ttf", "LiberationSans-Regular.ttf"}

// systemFontDirs lists common host font locations, tried after the
// bundled and storage directories.
var systemFontDirs = []string{
	"/usr/share/fonts/truetype/dejavu",
	"/usr/share/fonts/truetype/liberation",
	"/usr/share/fonts/TTF",
	"/usr/local/share/fonts",
	"/Library/Fonts",
	"/System/Library/Fonts",
}

// Resolve returns a face for the family at the given pixel size. It never
// returns an error: when no outline font can be loaded the built-in
// bitmap face is returned at its fixed size.
func (r *FontResolver) Resolve(family string, size int) font.Face {
	if size <= 0 {
		size = 24
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := faceKey{family: family, size: size}
	if face, ok := r.faces[key]; ok {
		return face
	}

	face := r.buildFace(family, size)
	r.faces[key] = face
	return face
}

func (r *FontResolver) buildFace(family string, size int) font.Face {
	fnt := r.loadFont(family)
	if fnt == nil {
		return basicfont.Face7x13
	}

	face, err := opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return basicfont.Face7x13
	}
	return face
}

func (r *FontResolver) loadFont(family string) *opentype.Font {
	if fnt, ok := r.parsed[family]; ok {
		return fnt
	}

	candidates := fontFiles[family]
	if len(candidates) == 0 {
		candidates = genericFiles
	}

	dirs := []string{r.bundledDir, r.storageDir}
	dirs = append(dirs, systemFontDirs...)

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		for _, name := range candidates {
			fnt := parseFontFile(filepath.Join(dir, name))
			if fnt != nil {
				r.parsed[family] = fnt
				return fnt
			}
		}
	}

	// Cache the miss so the probe chain runs once per family.
	r.parsed[family] = nil
	return nil
}

func parseFontFile(path string) *opentype.Font {
	if !strings.HasSuffix(strings.ToLower(path), ".ttf") {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	fnt, err := opentype.Parse(data)
	if err != nil {
		return nil
	}
	return fnt
}
