package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentType(t *testing.T) {
	t.Run("Allowed", func(t *testing.T) {
		assert.True(t, ContentType("application/json", ContentTypeJSON))
		assert.True(t, ContentType("text/plain", ContentTypeJSON, ContentTypePlainText))
	})

	t.Run("NotAllowed", func(t *testing.T) {
		assert.False(t, ContentType("application/xml", ContentTypeJSON))
		assert.False(t, ContentType("", ContentTypeJSON))
	})
}
