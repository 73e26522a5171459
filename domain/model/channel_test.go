package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePlatform(t *testing.T) {
	p, ok := ParsePlatform("  Facebook ")
	assert.True(t, ok)
	assert.Equal(t, PlatformFacebook, p)

	_, ok = ParsePlatform("myspace")
	assert.False(t, ok)
}

func TestCoercePermissionsShapes(t *testing.T) {
	assert.Nil(t, CoercePermissions(nil))
	assert.Equal(t, []string{"email", "pages_show_list"}, CoercePermissions([]string{"Email", "pages_show_list", "email"}))
	assert.Equal(t, []string{"email", "public_profile"}, CoercePermissions("email, public_profile"))
	assert.Equal(t, []string{"user.info.basic", "video.list"}, CoercePermissions("user.info.basic video.list"))
	assert.Equal(t, []string{"email"}, CoercePermissions([]interface{}{"email", 42}))
	assert.Nil(t, CoercePermissions(3.14))
}

func TestHasPermissionsIsCaseInsensitive(t *testing.T) {
	m := PlatformMeta{Permissions: []string{"pages_manage_posts", "email"}}
	assert.True(t, m.HasPermissions("PAGES_MANAGE_POSTS"))
	assert.True(t, m.HasPermissions("email", "pages_manage_posts"))
	assert.False(t, m.HasPermissions("email", "instagram_basic"))
}

// Rows written before permissions were normalized carry a comma-joined string;
// reading them must still yield the canonical slice.
func TestUnmarshalMetaLegacyPermissionString(t *testing.T) {
	m, err := UnmarshalMeta([]byte(`{"permissions":"email, Pages_Show_List","facebook":{"user_id":"u1","name":"Tester"}}`))
	assert.NoError(t, err)
	assert.Equal(t, []string{"email", "pages_show_list"}, m.Permissions)
	assert.Equal(t, "u1", m.Facebook.UserID)
}

func TestUnmarshalMetaEmpty(t *testing.T) {
	m, err := UnmarshalMeta(nil)
	assert.NoError(t, err)
	assert.Nil(t, m.Permissions)
	assert.Nil(t, m.Facebook)
}

func TestMetaRoundTrip(t *testing.T) {
	in := PlatformMeta{
		Permissions: []string{"instagram_basic"},
		Instagram:   &InstagramMeta{UserID: "ig-1", Username: "acme", BusinessAccountID: "big-1"},
	}
	data, err := MarshalMeta(in)
	assert.NoError(t, err)
	out, err := UnmarshalMeta(data)
	assert.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestFirstPage(t *testing.T) {
	assert.Nil(t, PlatformMeta{}.FirstPage())
	m := PlatformMeta{Facebook: &FacebookMeta{Pages: []ManagedPage{{ID: "p1"}, {ID: "p2"}}}}
	assert.Equal(t, "p1", m.FirstPage().ID)
}
