package activitymap_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	session "github.com/goliatone/go-social-session"
	"github.com/goliatone/go-social-session/activitymap"
)

func TestNormalizeValidationEvent(t *testing.T) {
	occurredAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	event := session.ActivityEvent{
		EventType:  session.ActivityEventSessionValid,
		UserID:     "user-1",
		Role:       session.RoleAdmin,
		Outcome:    session.OutcomeValid,
		Metadata:   map[string]any{"source": "watch"},
		OccurredAt: occurredAt,
	}

	out := activitymap.Normalize(event)

	assert.Equal(t, "user-1", out.ActorID)
	assert.Equal(t, "session.validated", out.Verb)
	assert.Equal(t, "user", out.ObjectType)
	assert.Equal(t, "user-1", out.ObjectID)
	assert.Equal(t, "session", out.Channel)
	assert.Equal(t, occurredAt, out.OccurredAt)
	assert.Equal(t, "watch", out.Metadata["source"])
	assert.Equal(t, "admin", out.Metadata[activitymap.MetadataKeyRole])
	assert.Equal(t, "valid", out.Metadata[activitymap.MetadataKeyOutcome])
	assert.NotContains(t, out.Metadata, activitymap.MetadataKeyRedirectAction)

	assert.Len(t, event.Metadata, 1, "source metadata must not be mutated")
}

func TestNormalizeRedirectEvent(t *testing.T) {
	event := session.ActivityEvent{
		EventType: session.ActivityEventRedirect,
		Decision:  session.Decision{Action: session.ActionLogin, Target: "/login?expired=true"},
	}

	out := activitymap.Normalize(event)

	assert.Equal(t, "anonymous", out.ActorID)
	assert.Empty(t, out.ObjectID)
	assert.Equal(t, session.ActionLogin.String(), out.Metadata[activitymap.MetadataKeyRedirectAction])
	assert.Equal(t, "/login?expired=true", out.Metadata[activitymap.MetadataKeyRedirectTarget])
	assert.NotContains(t, out.Metadata, activitymap.MetadataKeyOutcome)
	assert.False(t, out.OccurredAt.IsZero())
}

func TestNormalizeOptionOverrides(t *testing.T) {
	event := session.ActivityEvent{
		EventType: session.ActivityEventLoginFailure,
		Metadata: map[string]any{
			"email":                      "jane@example.com",
			activitymap.MetadataKeyRole: "existing",
		},
		Role: session.RoleUser,
	}

	out := activitymap.Normalize(event,
		activitymap.WithDefaultChannel("security"),
		activitymap.WithDefaultObjectType("account"),
		activitymap.WithActorFallback("cli"),
		activitymap.WithObjectIDResolver(func(e session.ActivityEvent) string {
			v, _ := e.Metadata["email"].(string)
			return v
		}),
	)

	assert.Equal(t, "security", out.Channel)
	assert.Equal(t, "account", out.ObjectType)
	assert.Equal(t, "cli", out.ActorID)
	assert.Equal(t, "jane@example.com", out.ObjectID)
	assert.Equal(t, "existing", out.Metadata[activitymap.MetadataKeyRole])
}

func TestNormalizeEmptyMetadata(t *testing.T) {
	out := activitymap.Normalize(session.ActivityEvent{EventType: session.ActivityEventLogout})
	assert.Nil(t, out.Metadata)
}

func TestWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := activitymap.NewWriterSink(&buf, activitymap.WithDefaultChannel("cli"))

	require.NoError(t, sink.Record(context.Background(), session.ActivityEvent{
		EventType: session.ActivityEventSessionExpired,
		Outcome:   session.OutcomeExpired,
	}))
	require.NoError(t, sink.Record(context.Background(), session.ActivityEvent{
		EventType: session.ActivityEventLogout,
		UserID:    "user-9",
	}))

	dec := json.NewDecoder(&buf)

	var first activitymap.Normalized
	require.NoError(t, dec.Decode(&first))
	assert.Equal(t, "session.expired", first.Verb)
	assert.Equal(t, "cli", first.Channel)
	assert.Equal(t, "expired", first.Metadata[activitymap.MetadataKeyOutcome])

	var second activitymap.Normalized
	require.NoError(t, dec.Decode(&second))
	assert.Equal(t, "auth.logout", second.Verb)
	assert.Equal(t, "user-9", second.ActorID)
}
