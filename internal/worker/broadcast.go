// Package worker provides background job processing for Sangam.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sangamlabs/sangam/internal/member"
	"github.com/sangamlabs/sangam/internal/push"
)

// SegmentResolver resolves a broadcast segment to member IDs.
// Implemented by member.Directory.
type SegmentResolver interface {
	ResolveSegment(ctx context.Context, segment member.Segment) ([]string, error)
}

// Sender fans a payload out to member devices. Implemented by
// push.Dispatcher.
type Sender interface {
	DispatchToMembers(ctx context.Context, memberIDs []string, payload push.Payload) push.DispatchResult
}

// ChunkSizer supplies the runtime-tunable broadcast chunk size.
// Implemented by featureflags.Service.
type ChunkSizer interface {
	BroadcastChunkSize(ctx context.Context) int
}

// defaultChunkSize is the number of members dispatched per batch when no
// flag overrides it.
const defaultChunkSize = 500

// BroadcastJobConfig holds configuration for the broadcast job.
type BroadcastJobConfig struct {
	Members    SegmentResolver
	Dispatcher Sender

	// Flags is optional; when set, the chunk size is read per run.
	Flags ChunkSizer

	Logger zerolog.Logger
}

// BroadcastJob fans an admin push message out to a member segment in
// chunks. Chunk failures are independent: a failed batch never aborts
// the remaining ones.
type BroadcastJob struct {
	members    SegmentResolver
	dispatcher Sender
	flags      ChunkSizer
	logger     zerolog.Logger
}

// NewBroadcastJob creates a new broadcast job.
func NewBroadcastJob(cfg BroadcastJobConfig) *BroadcastJob {
	return &BroadcastJob{
		members:    cfg.Members,
		dispatcher: cfg.Dispatcher,
		flags:      cfg.Flags,
		logger:     cfg.Logger,
	}
}

// Run delivers the message to every member of the target segment and
// reports aggregate sent/failed token counts.
func (j *BroadcastJob) Run(ctx context.Context, title, body, target string) (sent, failed int, err error) {
	segment, ok := member.ParseSegment(target)
	if !ok {
		return 0, 0, fmt.Errorf("unknown broadcast segment %q", target)
	}

	startTime := time.Now()

	memberIDs, err := j.members.ResolveSegment(ctx, segment)
	if err != nil {
		return 0, 0, fmt.Errorf("resolving segment %s: %w", segment, err)
	}
	if len(memberIDs) == 0 {
		j.logger.Info().Str("segment", string(segment)).Msg("broadcast segment is empty")
		return 0, 0, nil
	}

	chunkSize := defaultChunkSize
	if j.flags != nil {
		if size := j.flags.BroadcastChunkSize(ctx); size > 0 {
			chunkSize = size
		}
	}

	payload := push.Payload{
		Title: title,
		Body:  body,
		Data:  map[string]string{"kind": "system"},
	}

	var deactivated int
	for start := 0; start < len(memberIDs); start += chunkSize {
		end := start + chunkSize
		if end > len(memberIDs) {
			end = len(memberIDs)
		}

		result := j.dispatcher.DispatchToMembers(ctx, memberIDs[start:end], payload)
		sent += result.Sent
		failed += result.Failed
		deactivated += result.Deactivated

		if len(result.Errors) > 0 {
			j.logger.Warn().
				Int("chunk_start", start).
				Int("errors", len(result.Errors)).
				Msg("broadcast chunk had delivery errors")
		}
	}

	j.logger.Info().
		Str("segment", string(segment)).
		Int("members", len(memberIDs)).
		Int("sent", sent).
		Int("failed", failed).
		Int("deactivated", deactivated).
		Dur("duration", time.Since(startTime)).
		Msg("broadcast completed")

	return sent, failed, nil
}
