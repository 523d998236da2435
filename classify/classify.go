// Package classify infers a semantic mod-type tag from the paths a
// container carries. The tag drives install strategy (Audio and
// Movies mods skip IoStore conversion) and the Host's catalogue
// grouping.
package classify

import "strings"

// Mod-type tags. The set is closed; unmatched content is Misc.
const (
	TypeAudio     = "Audio"
	TypeMovies    = "Movies"
	TypeCharacter = "Character"
	TypeUI        = "UI"
	TypeMap       = "Map"
	TypeMisc      = "Misc"
)

// rule maps path fragments to a tag. Rules are evaluated in order;
// the first tag with any matching fragment wins, which fixes
// tie-breaking for containers that mix content kinds.
type rule struct {
	tag       string
	fragments []string
}

var rules = []rule{
	{TypeAudio, []string{"WwiseAudio", "WwiseBanks", "WwiseEvents", "/Audio/", "Sounds/"}},
	{TypeMovies, []string{"Movies/"}},
	{TypeCharacter, []string{"Characters/", "/Character/", "Skeletons/", "Meshes/"}},
	{TypeUI, []string{"/UI/", "Widgets/", "HUD/"}},
	{TypeMap, []string{"Maps/", "Levels/"}},
}

// Paths returns the tag for a set of in-container relative paths.
func Paths(paths []string) string {
	for _, r := range rules {
		for _, p := range paths {
			// Normalize so fragment rules can anchor on separators.
			p = "/" + strings.ReplaceAll(p, "\\", "/")
			for _, frag := range r.fragments {
				if strings.Contains(p, frag) {
					return r.tag
				}
			}
		}
	}
	return TypeMisc
}
