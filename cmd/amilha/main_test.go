package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestSafeJoinRejectsEscape exercises the abspath.lzh fixture requirement
// from spec.md section 8: an archive member naming an absolute path or a
// '..' escape must not cause any filesystem mutation outside outDir.
func TestSafeJoinRejectsEscape(t *testing.T) {
	cases := []struct {
		name       string
		memberPath string
		wantErr    bool
	}{
		{"plain relative path", "sub/file.txt", false},
		{"absolute path", "/etc/passwd", true},
		{"parent traversal", "../../etc/passwd", true},
		{"traversal that stays inside after join", "sub/../file.txt", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := safeJoin("/tmp/out", tc.memberPath)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
