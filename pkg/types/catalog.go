package types

// Platform names the operating system a path template applies to
type Platform string

const (
	// PlatformAny matches every operating system
	PlatformAny     Platform = "any"
	PlatformWindows Platform = "windows"
	PlatformLinux   Platform = "linux"
	PlatformDarwin  Platform = "darwin"
)

// KnownPlatforms lists the platforms a catalog may reference
var KnownPlatforms = []Platform{PlatformAny, PlatformWindows, PlatformLinux, PlatformDarwin}

// Matches reports whether a template tagged with p applies on goos
func (p Platform) Matches(goos string) bool {
	return p == PlatformAny || string(p) == goos
}

// PathTemplate is a platform-tagged path pattern with ~ and $VAR placeholders
type PathTemplate struct {
	Platform Platform `yaml:"platform"`
	Path     string   `yaml:"path"`
}

// CatalogEntry describes one application whose save data saveli can manage
type CatalogEntry struct {
	// ID is stable and doubles as the directory name inside the storage root
	ID string `yaml:"id"`

	Title string `yaml:"title"`

	// Custom marks entries that came from the user's catalog file
	Custom bool `yaml:"-"`

	Templates []PathTemplate `yaml:"paths"`
}

// DisplayName returns the title, or the id when no title is set
func (e CatalogEntry) DisplayName() string {
	if e.Title != "" {
		return e.Title
	}
	return e.ID
}
