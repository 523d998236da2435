package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaths(t *testing.T) {
	tests := []struct {
		name  string
		paths []string
		want  string
	}{
		{"wwise audio", []string{"Game/Content/WwiseAudio/Media/123.wem"}, TypeAudio},
		{"wwise banks", []string{"Content/WwiseBanks/Init.bnk"}, TypeAudio},
		{"movies", []string{"Game/Content/Movies/Intro.bk2"}, TypeMovies},
		{"character", []string{"Content/Characters/Hero/Meshes/Body.uasset"}, TypeCharacter},
		{"meshes only", []string{"Content/Meshes/Prop.uasset"}, TypeCharacter},
		{"ui", []string{"Content/UI/HUD/Crosshair.uasset"}, TypeUI},
		{"maps", []string{"Content/Maps/Arena.umap"}, TypeMap},
		{"unknown", []string{"Content/Blueprints/BP_Thing.uasset"}, TypeMisc},
		{"empty", nil, TypeMisc},
		{"backslashes", []string{`Content\Movies\Intro.bk2`}, TypeMovies},
		// Audio outranks Character when a container mixes both.
		{"priority", []string{"Content/Characters/Hero/Body.uasset", "Content/WwiseAudio/1.wem"}, TypeAudio},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Paths(tt.paths))
		})
	}
}
