package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/panecast/panecast/internal/domain"
)

type StartStreamInput struct {
	SessionID string `path:"sessionID" minLength:"1" maxLength:"128" pattern:"^[A-Za-z0-9][A-Za-z0-9._-]*$" doc:"Session ID"`
	Body      struct {
		Target string `json:"target" minLength:"1" maxLength:"128" doc:"Multiplexer pane target (e.g. session:window.pane or %pane-id)"`
	}
}

type StartStreamOutput struct {
	Body struct {
		Active bool `json:"active"`
	}
}

type StopStreamInput struct {
	SessionID string `path:"sessionID" minLength:"1" maxLength:"128" pattern:"^[A-Za-z0-9][A-Za-z0-9._-]*$" doc:"Session ID"`
}

type StopStreamOutput struct {
	// Body is null when the session was unknown or produced no recording.
	Body *domain.Recording
}

type StreamActiveInput struct {
	SessionID string `path:"sessionID" minLength:"1" maxLength:"128" pattern:"^[A-Za-z0-9][A-Za-z0-9._-]*$" doc:"Session ID"`
}

type StreamActiveOutput struct {
	Body struct {
		Active bool `json:"active"`
	}
}

type TakeSnapshotInput struct {
	SessionID string `path:"sessionID" minLength:"1" maxLength:"128" pattern:"^[A-Za-z0-9][A-Za-z0-9._-]*$" doc:"Session ID"`
	Body      struct {
		Target    string `json:"target" minLength:"1" maxLength:"128" doc:"Multiplexer pane target"`
		EventType string `json:"event_type" minLength:"1" maxLength:"50" doc:"Snapshot tag (session-start, blocked, completed, ...)"`
	}
}

type TakeSnapshotOutput struct {
	Body *domain.Snapshot
}

type ListSnapshotsInput struct {
	SessionID string `path:"sessionID" minLength:"1" maxLength:"128" pattern:"^[A-Za-z0-9][A-Za-z0-9._-]*$" doc:"Session ID"`
	Limit     int    `query:"limit" minimum:"1" maximum:"200" default:"50" doc:"Max results"`
	Offset    int    `query:"offset" minimum:"0" default:"0" doc:"Offset for pagination"`
}

type ListSnapshotsOutput struct {
	Body []*domain.Snapshot
}

type ListRecordingsInput struct {
	SessionID string `path:"sessionID" minLength:"1" maxLength:"128" pattern:"^[A-Za-z0-9][A-Za-z0-9._-]*$" doc:"Session ID"`
	Limit     int    `query:"limit" minimum:"1" maximum:"200" default:"50" doc:"Max results"`
	Offset    int    `query:"offset" minimum:"0" default:"0" doc:"Offset for pagination"`
}

type ListRecordingsOutput struct {
	Body []*domain.Recording
}

func RegisterStreamRoutes(api huma.API, store DataStore, engine StreamEngine) {
	huma.Register(api, huma.Operation{
		OperationID: "start-stream",
		Method:      http.MethodPost,
		Path:        "/streams/{sessionID}/start",
		Summary:     "Start capturing a pane's output for a session",
		Tags:        []string{"Streams"},
	}, func(ctx context.Context, input *StartStreamInput) (*StartStreamOutput, error) {
		err := engine.StartPaneStream(ctx, input.SessionID, input.Body.Target)
		if err != nil {
			return nil, huma.Error502BadGateway("failed to start pane stream", err)
		}

		out := &StartStreamOutput{}
		out.Body.Active = true
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "stop-stream",
		Method:      http.MethodPost,
		Path:        "/streams/{sessionID}/stop",
		Summary:     "Stop a session's stream and finalize its recording",
		Tags:        []string{"Streams"},
	}, func(ctx context.Context, input *StopStreamInput) (*StopStreamOutput, error) {
		recording, err := engine.StopPaneStream(ctx, input.SessionID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to stop pane stream", err)
		}

		return &StopStreamOutput{Body: recording}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "stream-active",
		Method:      http.MethodGet,
		Path:        "/streams/{sessionID}/active",
		Summary:     "Check whether a stream is active for a session",
		Tags:        []string{"Streams"},
	}, func(_ context.Context, input *StreamActiveInput) (*StreamActiveOutput, error) {
		out := &StreamActiveOutput{}
		out.Body.Active = engine.IsStreamActive(input.SessionID)
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "take-snapshot",
		Method:      http.MethodPost,
		Path:        "/streams/{sessionID}/snapshots",
		Summary:     "Capture a point-in-time snapshot of a pane's buffer",
		Tags:        []string{"Snapshots"},
	}, func(ctx context.Context, input *TakeSnapshotInput) (*TakeSnapshotOutput, error) {
		snapshot, err := engine.TakeSnapshot(ctx, input.SessionID, input.Body.Target, input.Body.EventType)
		if err != nil {
			return nil, huma.Error502BadGateway("failed to capture snapshot", err)
		}

		return &TakeSnapshotOutput{Body: snapshot}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-snapshots",
		Method:      http.MethodGet,
		Path:        "/streams/{sessionID}/snapshots",
		Summary:     "List a session's snapshots",
		Tags:        []string{"Snapshots"},
	}, func(ctx context.Context, input *ListSnapshotsInput) (*ListSnapshotsOutput, error) {
		snapshots, err := store.Snapshots().ListBySession(ctx, input.SessionID, input.Limit, input.Offset)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list snapshots", err)
		}

		return &ListSnapshotsOutput{Body: snapshots}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-recordings",
		Method:      http.MethodGet,
		Path:        "/streams/{sessionID}/recordings",
		Summary:     "List a session's recordings",
		Tags:        []string{"Recordings"},
	}, func(ctx context.Context, input *ListRecordingsInput) (*ListRecordingsOutput, error) {
		recordings, err := store.Recordings().ListBySession(ctx, input.SessionID, input.Limit, input.Offset)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list recordings", err)
		}

		return &ListRecordingsOutput{Body: recordings}, nil
	})
}
