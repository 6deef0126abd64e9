package workspace

import (
	"errors"
	"testing"
)

func TestSanitizeCourseName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		err   error
	}{
		{"普通课程名", "高等数学", "高等数学", nil},
		{"带空白", "  线性代数  ", "线性代数", nil},
		{"路径穿越归约为最后一段", "../../etc/passwd", "passwd", nil},
		{"绝对路径归约", "/tmp/课程", "课程", nil},
		{"空名", "", "", ErrIllegalName},
		{"纯空白", "   ", "", ErrIllegalName},
		{"单点", ".", "", ErrIllegalName},
		{"双点", "..", "", ErrIllegalName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeCourseName(tt.input)
			if !errors.Is(err, tt.err) {
				t.Fatalf("err = %v, want %v", err, tt.err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		err   error
	}{
		{"合法 pdf", "讲义.pdf", "讲义.pdf", nil},
		{"大写扩展名", "NOTES.MD", "NOTES.MD", nil},
		{"路径穿越", "../../secret.txt", "secret.txt", nil},
		{"白名单外扩展名", "virus.exe", "", ErrUnsupportedExtension},
		{"无扩展名", "README", "", ErrUnsupportedExtension},
		{"空名", "", "", ErrIllegalName},
		{"双点", "..", "", ErrIllegalName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeFilename(tt.input)
			if !errors.Is(err, tt.err) {
				t.Fatalf("err = %v, want %v", err, tt.err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
