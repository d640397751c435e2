package validator

import (
	"testing"

	"github.com/gabriel-vasile/mimetype"
	"github.com/stretchr/testify/assert"
)

func TestValidator(t *testing.T) {
	t.Run("first error wins", func(t *testing.T) {
		v := New()
		v.Check(false, "title", "must be provided")
		v.Check(false, "title", "must be at least 3 characters long")
		assert.False(t, v.Valid())
		assert.Equal(t, "must be provided", v.Errors["title"])
	})

	t.Run("passing checks leave it valid", func(t *testing.T) {
		v := New()
		v.Check(true, "year", "must be provided")
		assert.True(t, v.Valid())
		assert.Empty(t, v.String())
	})

	t.Run("string is key ordered", func(t *testing.T) {
		v := New()
		v.AddError("year", "must not be in the future")
		v.AddError("author", "must be provided")
		assert.Equal(t, "author must be provided; year must not be in the future", v.String())
	})
}

func TestHelpers(t *testing.T) {
	assert.True(t, In("loaned", "available", "loaned"))
	assert.False(t, In("lost", "available", "loaned"))

	assert.Equal(t, 6, RuneLen("Mônica"))
	assert.True(t, Between("Maus", 3, 90))
	assert.False(t, Between("V", 3, 90))
	assert.True(t, Between("Ção", 3, 3))
}

func TestMime(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	assert.True(t, Mime(mimetype.Detect(png), "image/jpeg", "image/png"))
	assert.False(t, Mime(mimetype.Detect([]byte("%PDF-1.7\n")), "image/jpeg", "image/png"))
}
