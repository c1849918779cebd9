package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestFrom(t *testing.T) {
	assert := assert.New(t)

	SetLanguage(language.AmericanEnglish)

	assert.Equal("no boot program", From("no boot program"))
	assert.Equal("pid 7: bad", From("pid %v: %v", 7, "bad"))
	assert.Equal("4,000 words", From("%d words", 4000))
}
