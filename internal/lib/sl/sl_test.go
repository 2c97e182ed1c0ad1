package sl_test

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/media-storefront/internal/lib/sl"
)

func TestErr(t *testing.T) {
	attr := sl.Err(errors.New("emby unavailable"))

	assert.Equal(t, "error", attr.Key)
	assert.Equal(t, slog.StringValue("emby unavailable"), attr.Value)
}

func TestErr_NilError(t *testing.T) {
	attr := sl.Err(nil)

	assert.Equal(t, "error", attr.Key)
	assert.Equal(t, "", attr.Value.String())
}

func TestUser(t *testing.T) {
	attr := sl.User("u-1")

	assert.Equal(t, "user_id", attr.Key)
	assert.Equal(t, "u-1", attr.Value.String())
}
