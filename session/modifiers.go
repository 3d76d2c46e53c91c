package session

import "strings"

// Modifier term lists appended to image-generation prompts. The image
// prompt-writer profile also embeds them as vocabulary.

var Categories = []string{
	"album cover", "anatomical drawing", "book cover", "business card", "brand identity",
	"character design", "character sheet", "color palette", "comic strips", "coloring book page",
	"fashion moodboard", "flat lay photography", "flyer", "game assets", "game ui",
	"house plan", "icon set design", "infographic", "interior design", "jewelry design",
	"logo design", "magazine cover", "menu design", "mobile app ui design", "packaging design",
	"postage stamp", "poster", "propaganda poster", "sticker", "seamless pattern",
	"reference sheet", "story board", "wedding invitation", "tarot card", "tattoo design",
	"anime character design", "website design", "watercolor", "botanical watercolor",
}

var Styles = []string{
	"3D", "Abstract Art", "Abstract Expressionism", "Art Brut", "Art Deco", "Art Nouveau",
	"Bauhaus", "Brutalism", "Caricature", "Cartoon", "Childrens Book Illustration",
	"Cinematic", "Collage Art", "Comic", "Conceptual Art", "Constructivism", "Cubism",
	"Expressionism", "Impressionism", "Realism", "Surrealism",
}

var Lighting = []string{
	"Backlighting", "Blue Hour", "Bokeh", "Cinematic Lighting", "Crepuscular Rays",
	"Dappled Light", "Dramatic Lighting", "Dreamy Glow", "Dusk", "Golden Hour",
	"Hard Lighting", "High Key Lighting", "Lens Flare", "Low Key Lighting", "Moonlight",
	"Neon Lights", "Soft Lighting", "Starry", "Sunlit", "Twilight Hour",
}

var CameraAngles = []string{
	"35mm", "85mm", "4k", "8k", "Aerial Photography", "Closeup", "Double exposure",
	"Drone Photography", "Dutch angle", "Far Shot", "Fisheye lens", "Full Body Shot",
	"Headshot Photography", "High Angle Shot", "Long Exposure", "Low Angle Shot",
	"Macro Lens", "Medium Shot", "Panoramic view", "Portrait Photography", "Telephoto Lens",
	"Tiltshift", "Top Down Shot", "Ultra Wide Angle", "Wide Angle",
}

var Colors = []string{
	"Red", "Blue", "Green", "Yellow", "Orange", "Aquamarine", "Azure", "Beige", "Black",
	"BlueViolet", "Brown", "Chartreuse", "Coral", "Crimson", "Cyan", "DarkBlue",
	"ForestGreen", "Fuchsia", "Magenta", "Turquoise", "White",
}

var Textures = []string{
	"3d fractals", "agate", "aluminum", "amber", "amethyst", "anodized titanium", "basalt",
	"brass", "brick", "bronze", "brushed aluminum", "ceramic", "chainmail", "chalk stripes",
	"celtic knot", "enamel",
}

// ModifierSelection is the set of modifier terms the user picked for
// one generation request
type ModifierSelection struct {
	Categories   []string
	Styles       []string
	Lighting     []string
	CameraAngles []string
	Colors       []string
	Textures     []string
}

// ExpandPrompt appends the selected modifier terms to the base prompt,
// comma-separated, group by group. The result is what actually goes to
// the generator and what the ledger records.
func ExpandPrompt(prompt string, sel ModifierSelection) string {
	expanded := prompt
	for _, group := range [][]string{
		sel.Categories, sel.Styles, sel.Lighting, sel.CameraAngles, sel.Colors, sel.Textures,
	} {
		if len(group) > 0 {
			expanded += ", " + strings.Join(group, ", ")
		}
	}
	return expanded
}
