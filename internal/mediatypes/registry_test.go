package mediatypes

import (
	"bytes"
	"testing"
)

func TestDefaultCatalog(t *testing.T) {
	r, err := Default()
	if err != nil {
		t.Fatalf("Default() error: %v", err)
	}

	want := []string{"mp4", "webm", "ogg", "avi", "mov", "wmv"}
	formats := r.Formats()
	if len(formats) != len(want) {
		t.Fatalf("expected %d formats, got %d", len(want), len(formats))
	}
	for i, ext := range want {
		if formats[i].Extension != ext {
			t.Errorf("format %d = %q, want %q (catalog order)", i, formats[i].Extension, ext)
		}
	}

	if got := r.AcceptAttribute(); got != ".mp4,.webm,.ogg,.avi,.mov,.wmv" {
		t.Errorf("AcceptAttribute() = %q", got)
	}
}

func TestRegistry_Match(t *testing.T) {
	r := MustDefault()

	tests := []struct {
		name        string
		fileName    string
		contentType string
		wantExt     string
		wantOK      bool
	}{
		{name: "mp4 by mime", fileName: "intro.mp4", contentType: "video/mp4", wantExt: "mp4", wantOK: true},
		{name: "mime with params", fileName: "clip", contentType: "video/webm; codecs=vp9", wantExt: "webm", wantOK: true},
		{name: "quicktime", fileName: "a.MOV", contentType: "video/quicktime", wantExt: "mov", wantOK: true},
		{name: "extension fallback", fileName: "lecture.WMV", contentType: "", wantExt: "wmv", wantOK: true},
		{name: "octet-stream falls back to extension", fileName: "lecture.avi", contentType: "application/octet-stream", wantExt: "avi", wantOK: true},
		{name: "declared type wins over extension", fileName: "notes.mp4", contentType: "application/pdf", wantOK: false},
		{name: "unknown extension", fileName: "movie.mkv", contentType: "", wantOK: false},
		{name: "no extension no type", fileName: "movie", contentType: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ok := r.Match(tt.fileName, tt.contentType)
			if ok != tt.wantOK {
				t.Fatalf("Match() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && f.Extension != tt.wantExt {
				t.Errorf("Match() ext = %q, want %q", f.Extension, tt.wantExt)
			}
		})
	}
}

func TestRegistry_Sniff(t *testing.T) {
	r := MustDefault()

	// Minimal ISO base media header: size + "ftyp" + "isom" brand
	mp4Header := []byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm', 0x00, 0x00, 0x02, 0x00, 'i', 's', 'o', 'm', 'm', 'p', '4', '1'}
	ct, err := r.Sniff(bytes.NewReader(mp4Header))
	if err != nil {
		t.Fatalf("Sniff() error: %v", err)
	}
	if _, ok := r.Match("", ct); !ok {
		t.Errorf("sniffed type %q should be accepted", ct)
	}

	ct, err = r.Sniff(bytes.NewReader([]byte("plain text, not a video")))
	if err != nil {
		t.Fatalf("Sniff() error: %v", err)
	}
	if _, ok := r.Match("", ct); ok {
		t.Errorf("sniffed type %q should be rejected", ct)
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("category: video\nformats: {}\n")); err == nil {
		t.Error("expected error for empty catalog")
	}
	if _, err := Parse([]byte("formats: [unclosed")); err == nil {
		t.Error("expected error for malformed yaml")
	}
}
