package platforms

// Target is one named pixel-dimension slot a platform expects.
type Target struct {
	Name   string
	Width  int
	Height int
}

// Specs maps a platform name to its delivery slots. Static configuration,
// consumed only by the export packager.
var Specs = map[string][]Target{
	"meta": {
		{Name: "feed_square", Width: 1080, Height: 1080},
		{Name: "feed_portrait", Width: 1080, Height: 1350},
		{Name: "story", Width: 1080, Height: 1920},
	},
	"instagram": {
		{Name: "feed_square", Width: 1080, Height: 1080},
		{Name: "reel", Width: 1080, Height: 1920},
	},
	"tiktok": {
		{Name: "video_cover", Width: 1080, Height: 1920},
	},
	"linkedin": {
		{Name: "feed", Width: 1200, Height: 627},
		{Name: "square", Width: 1200, Height: 1200},
	},
	"google": {
		{Name: "landscape", Width: 1200, Height: 628},
		{Name: "square", Width: 1200, Height: 1200},
		{Name: "skyscraper", Width: 300, Height: 600},
	},
	"x": {
		{Name: "feed", Width: 1600, Height: 900},
	},
}

// Lookup returns the targets for a platform name, or nil when unknown.
func Lookup(platform string) []Target {
	return Specs[platform]
}

// Names lists the configured platform names.
func Names() []string {
	names := make([]string, 0, len(Specs))
	for name := range Specs {
		names = append(names, name)
	}
	return names
}
