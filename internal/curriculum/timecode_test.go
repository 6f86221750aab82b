package curriculum

import "testing"

func TestParseTimeCode(t *testing.T) {
	tests := []struct {
		name string
		text string
		want TimeCode
	}{
		{name: "minutes and seconds", text: "1:30", want: 90},
		{name: "hours", text: "1:02:03", want: 3723},
		{name: "plain seconds", text: "90", want: 90},
		{name: "surrounding space", text: " 2:05 ", want: 125},
		{name: "leading empty part", text: ":30", want: 30},
		{name: "unparseable part counts as zero", text: "1:xx", want: 60},
		{name: "negative part counts as zero", text: "-5", want: 0},
		{name: "empty", text: "", want: 0},
		{name: "garbage", text: "abc", want: 0},
		{name: "too many parts", text: "1:2:3:4", want: 0},
		{name: "zero literal", text: "00:00", want: 0},
		{name: "total overflows", text: "9223372036854775807:00", want: 0},
		{name: "hours overflow", text: "3000000000000000:0:0", want: 0},
		{name: "part out of range", text: "1:99999999999999999999", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseTimeCode(tt.text)
			if got != tt.want {
				t.Errorf("ParseTimeCode(%q) = %d, want %d", tt.text, got, tt.want)
			}
			if got < 0 {
				t.Errorf("ParseTimeCode(%q) is negative", tt.text)
			}
		})
	}
}

func TestFormatTimeCode(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "0:00"},
		{59, "0:59"},
		{90, "1:30"},
		{3599, "59:59"},
		{3600, "1:00:00"},
		{3723, "1:02:03"},
		{36000, "10:00:00"},
		{-3, "0:00"},
	}

	for _, tt := range tests {
		if got := FormatTimeCode(tt.seconds); got != tt.want {
			t.Errorf("FormatTimeCode(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestTimeCode_RoundTrip(t *testing.T) {
	for s := 0; s < 360000; s++ {
		if got := ParseTimeCode(FormatTimeCode(s)); int(got) != s {
			t.Fatalf("ParseTimeCode(FormatTimeCode(%d)) = %d", s, got)
		}
	}
}

func TestIsZeroLiteral(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"0", true},
		{"0:00", true},
		{"00:00:00", true},
		{" 0:0 ", true},
		{"", false},
		{"abc", false},
		{"0:xx", false},
		{"0:00:00:00", false},
		{":00", false},
		{"1:00", false},
	}

	for _, tt := range tests {
		if got := IsZeroLiteral(tt.text); got != tt.want {
			t.Errorf("IsZeroLiteral(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
