package result_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"astroctl/internal/result"
	"astroctl/internal/service"
	"astroctl/internal/testutil"
)

func TestRetrieveBoth(t *testing.T) {
	fake := testutil.NewFakeService()
	fake.AddTask("t1")
	fake.Blueprint = "0eNbp"

	out := result.NewRetriever(fake, nil).Retrieve(context.Background(), result.Request{TaskID: "t1"})

	require.NoError(t, out.Err())
	assert.Equal(t, fake.SolutionImage, out.Image)
	assert.Equal(t, "0eNbp", out.Blueprint)
}

func TestBlueprintFailureKeepsImage(t *testing.T) {
	fake := testutil.NewFakeService()
	fake.AddTask("t1")
	fake.BlueprintErr = &service.ServerError{StatusCode: 500, Body: `{"error":"Failed to generate blueprint"}`}

	out := result.NewRetriever(fake, nil).Retrieve(context.Background(), result.Request{TaskID: "t1"})

	assert.NoError(t, out.ImageErr)
	assert.False(t, out.Image.Empty())

	var serr *service.ServerError
	require.ErrorAs(t, out.BlueprintErr, &serr)
	assert.ErrorAs(t, out.Err(), &serr)
	assert.Empty(t, out.Blueprint)
}

func TestImageFailureSkipsBlueprint(t *testing.T) {
	fake := testutil.NewFakeService()

	out := result.NewRetriever(fake, nil).Retrieve(context.Background(), result.Request{TaskID: "expired"})

	assert.True(t, service.IsExpired(out.ImageErr))
	assert.NoError(t, out.BlueprintErr)
	assert.True(t, service.IsExpired(out.Err()))
}
