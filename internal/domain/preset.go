package domain

// SocialFormat describes one preset crop target for social media platforms.
// The catalog is fixed for the lifetime of the process; presets drive the
// transformation parameters of render requests and are never persisted.
type SocialFormat struct {
	Name        string `json:"name"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	AspectRatio string `json:"aspectRatio"`
}

// SocialFormats is the preset catalog, in display order.
var SocialFormats = []SocialFormat{
	{Name: "Instagram Square (1:1)", Width: 1080, Height: 1080, AspectRatio: "1:1"},
	{Name: "Instagram Portrait (4:5)", Width: 1080, Height: 1350, AspectRatio: "4:5"},
	{Name: "Twitter Post (16:9)", Width: 1200, Height: 675, AspectRatio: "16:9"},
	{Name: "Twitter Header (3:1)", Width: 1500, Height: 500, AspectRatio: "3:1"},
	{Name: "Facebook Cover (205:78)", Width: 820, Height: 312, AspectRatio: "205:78"},
}

// SocialFormatByName looks a preset up by its display name.
func SocialFormatByName(name string) (SocialFormat, bool) {
	for _, f := range SocialFormats {
		if f.Name == name {
			return f, true
		}
	}
	return SocialFormat{}, false
}
