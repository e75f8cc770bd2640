package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report.pdf"},
		{"my file (1).pdf", "my_file__1_.pdf"},
		{"trailing...", "trailing"},
		{"über-design.png", "_ber-design.png"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SafeFileName(tt.in))
	}

	long := strings.Repeat("a", 150) + ".pdf"
	assert.Len(t, SafeFileName(long), 100)
}

func TestResourceTypeFor(t *testing.T) {
	assert.Equal(t, "image", ResourceTypeFor("image/png"))
	assert.Equal(t, "image", ResourceTypeFor("image/jpeg"))
	assert.Equal(t, "video", ResourceTypeFor("video/mp4"))
	assert.Equal(t, "raw", ResourceTypeFor("application/pdf"))
	assert.Equal(t, "raw", ResourceTypeFor("application/zip"))
	assert.Equal(t, "raw", ResourceTypeFor(""))
}

func TestPublicIDForDropsExtension(t *testing.T) {
	assert.Equal(t, "orders/x/report", publicIDFor("orders/x", "report.pdf"))
	assert.Equal(t, "orders/x/my_file", publicIDFor("orders/x", "my file.pdf"))
	// dotfiles keep their name
	assert.Equal(t, "orders/x/.env", publicIDFor("orders/x", ".env"))
}
