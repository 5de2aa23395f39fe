package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUser_Mention(t *testing.T) {
	assert.Equal(t, "<@42>", User{ID: "42"}.Mention())
	assert.Equal(t, "<#7>", ChannelMention("7"))
}

func TestEmbed_AddField(t *testing.T) {
	var e Embed
	e.AddField("a", "1", true)
	e.AddField("b", "2", false)

	assert.Equal(t, []EmbedField{{Name: "a", Value: "1", Inline: true}, {Name: "b", Value: "2"}}, e.Fields)
}
