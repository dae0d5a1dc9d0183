package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/repository/memory"
)

func TestMerge(t *testing.T) {
	store := repository.NewStore(memory.New(), nil, nil)
	ctx := context.Background()
	require.NoError(t, store.SaveObject(ctx, model.CollectionSettings, model.DefaultSettings()))
	svc := NewService(store)

	merged, err := svc.Merge(ctx, model.Record{
		"whatsapp": map[string]interface{}{"enabled": true, "api_key": "k"},
		"extra":    "value",
	})
	require.NoError(t, err)
	assert.Equal(t, "value", merged.String("extra"))
	assert.NotNil(t, merged.Object("system"), "untouched sections survive")
	assert.NotContains(t, merged.Object("whatsapp"), "phone_number", "sections are replaced whole")

	assert.True(t, svc.Notifications(ctx).Ready())
	assert.Equal(t, "value", svc.Get(ctx).String("extra"))
}
