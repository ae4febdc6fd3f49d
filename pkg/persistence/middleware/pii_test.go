package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPIIMiddleware_Masking(t *testing.T) {
	underlying := NewMockStore()
	secure := middleware.NewPIIMiddleware([]string{"password", "ssn"})(underlying)
	ctx := context.Background()

	root := domain.New(domain.TypeContainer)
	root.SetProp("username", "jdoe")
	form := domain.New(domain.TypeButton)
	form.SetProp("user_password", "secret123")
	form.SetProp("details", map[string]any{
		"address":    "123 St",
		"ssn_number": "999-99-9999",
	})
	require.NoError(t, root.AppendChild(form))

	doc := domain.NewDocument("test")
	doc.Settings.Set("admin_password", "hunter2")
	doc.Elements = append(doc.Elements, root.ToJSON())

	require.NoError(t, secure.Save(ctx, "doc", doc))

	pw, _ := doc.Elements[0].Children[0].Props.Get("user_password")
	assert.Equal(t, "secret123", pw, "caller's document must not be modified")

	stored, err := underlying.Load(ctx, "doc")
	require.NoError(t, err)

	adminPw, _ := stored.Settings.Get("admin_password")
	assert.Equal(t, middleware.Mask, adminPw)

	username, _ := stored.Elements[0].Props.Get("username")
	assert.Equal(t, "jdoe", username, "unmatched keys stay")

	child := stored.Elements[0].Children[0]
	pw, _ = child.Props.Get("user_password")
	assert.Equal(t, middleware.Mask, pw)

	details, _ := child.Props.Get("details")
	nested, ok := details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, middleware.Mask, nested["ssn_number"])
	assert.Equal(t, "123 St", nested["address"])
}
