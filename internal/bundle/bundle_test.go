package bundle

import (
	"path/filepath"
	"testing"
)

func TestLocate(t *testing.T) {
	loc, err := Locate("/tmp/MyAction")
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}
	if loc.Manifest != filepath.Join("/tmp/MyAction", ManifestName) {
		t.Errorf("Manifest = %s", loc.Manifest)
	}
	if loc.Icon != filepath.Join("/tmp/MyAction", IconName) {
		t.Errorf("Icon = %s", loc.Icon)
	}
	if loc.Name() != "MyAction" {
		t.Errorf("Name = %s", loc.Name())
	}
}

func TestArchiveName(t *testing.T) {
	tests := []struct {
		dir  string
		want string
	}{
		{"/tmp/MyAction", "MyAction.zip"},
		{"/tmp/My Great Action", "MyGreatAction.zip"},
		{"/tmp/Open in BBEdit", "OpeninBBEdit.zip"},
	}
	for _, tt := range tests {
		loc, err := Locate(tt.dir)
		if err != nil {
			t.Fatalf("Locate(%s) failed: %v", tt.dir, err)
		}
		if got := loc.ArchiveName(); got != tt.want {
			t.Errorf("ArchiveName(%s) = %s, want %s", tt.dir, got, tt.want)
		}
	}
}

func TestSplitScriptName(t *testing.T) {
	tests := []struct {
		name      string
		base, ext string
	}{
		{"run.applescript", "run", "applescript"},
		{"my_script.v2.sh", "my_script.v2", "sh"},
		{"noext", "noext", ""},
		{"run script.txt", "run script", "txt"},
	}
	for _, tt := range tests {
		base, ext := SplitScriptName(tt.name)
		if base != tt.base || ext != tt.ext {
			t.Errorf("SplitScriptName(%q) = %q, %q, want %q, %q", tt.name, base, ext, tt.base, tt.ext)
		}
	}
}

func TestValidNamePart(t *testing.T) {
	valid := []string{"run", "Run_2", "APPLESCRIPT", "a"}
	for _, s := range valid {
		if !ValidNamePart(s) {
			t.Errorf("ValidNamePart(%q) = false, want true", s)
		}
	}
	invalid := []string{"", "run script", "run-script", "résumé", "run.sh", "a b"}
	for _, s := range invalid {
		if ValidNamePart(s) {
			t.Errorf("ValidNamePart(%q) = true, want false", s)
		}
	}
}
