package tmx_test

import (
	"reflect"
	"testing"

	"tmx-go/internal/tmx"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		name  string
		label string
		want  string
	}{
		{"spaces become underscores", "telares circulares", "telares_circulares"},
		{"mixed case is lowered", "Telares Circulares", "telares_circulares"},
		{"surrounding whitespace trimmed", "  extrusion  ", "extrusion"},
		{"separators become underscores", "a/b", "a_b"},
		{"empty stays empty", "", ""},
		{"already slugged unchanged", "torre_de_enfriamiento", "torre_de_enfriamiento"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tmx.Slug(tt.label)
			if got != tt.want {
				t.Errorf("Slug(%q) = %q, want %q", tt.label, got, tt.want)
			}
			// Slug must be idempotent.
			if again := tmx.Slug(got); again != got {
				t.Errorf("Slug(Slug(%q)) = %q, want %q", tt.label, again, got)
			}
		})
	}
}

func TestPrettify(t *testing.T) {
	tests := []struct {
		segment string
		want    string
	}{
		{"telares_circulares", "telares circulares"},
		{"extrusion", "extrusion"},
		{"", ""},
	}
	for _, tt := range tests {
		got := tmx.Prettify(tt.segment)
		if got != tt.want {
			t.Errorf("Prettify(%q) = %q, want %q", tt.segment, got, tt.want)
		}
		// Re-slugging the pretty form must give back the segment.
		if back := tmx.Slug(got); back != tt.segment {
			t.Errorf("Slug(Prettify(%q)) = %q, want %q", tt.segment, back, tt.segment)
		}
	}
}

func TestBuildKey(t *testing.T) {
	tests := []struct {
		name                          string
		area, sub1, sub2, sub3, fname string
		want                          string
	}{
		{
			name:  "all labels empty yields bare filename",
			fname: "Gear.FCStd",
			want:  "Gear.FCStd",
		},
		{
			name:  "labels slugged, filename verbatim",
			area:  "Telares Circulares",
			sub1:  "Motores",
			fname: "Gear.FCStd",
			want:  "telares_circulares/motores/Gear.FCStd",
		},
		{
			name:  "empty middle label dropped",
			area:  "extrusion",
			sub2:  "rodillos",
			fname: "Arm.svg",
			want:  "extrusion/rodillos/Arm.svg",
		},
		{
			name:  "filename with spaces untouched",
			area:  "laminadora",
			fname: "Main Assembly.FCStd",
			want:  "laminadora/Main Assembly.FCStd",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tmx.BuildKey(tt.area, tt.sub1, tt.sub2, tt.sub3, tt.fname)
			if got != tt.want {
				t.Errorf("BuildKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSplitObjectKey(t *testing.T) {
	t.Run("nested key", func(t *testing.T) {
		folders, fname := tmx.SplitObjectKey("extrusion/rodillos/Arm.svg")
		if !reflect.DeepEqual(folders, []string{"extrusion", "rodillos"}) {
			t.Errorf("folders = %v", folders)
		}
		if fname != "Arm.svg" {
			t.Errorf("filename = %q, want %q", fname, "Arm.svg")
		}
	})

	t.Run("root key has no folders", func(t *testing.T) {
		folders, fname := tmx.SplitObjectKey("Gear.FCStd")
		if len(folders) != 0 {
			t.Errorf("folders = %v, want empty", folders)
		}
		if fname != "Gear.FCStd" {
			t.Errorf("filename = %q", fname)
		}
	})
}

func TestFolderPrefix(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"extrusion/rodillos/Arm.svg", "extrusion/rodillos/"},
		{"extrusion/Arm.svg", "extrusion/"},
		{"Gear.FCStd", ""},
	}
	for _, tt := range tests {
		if got := tmx.FolderPrefix(tt.key); got != tt.want {
			t.Errorf("FolderPrefix(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}
