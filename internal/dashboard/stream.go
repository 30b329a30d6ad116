package dashboard

import (
	"context"
	"io"
	"strings"

	"github.com/tubedash/tubedash/internal/api"
)

// ChatChunk carries the stream's full accumulator so far, not a delta:
// the transcript's placeholder is overwritten with Content as-is.
type ChatChunk struct {
	Token   int
	Content string
}

// ChatDone means the stream drained normally; the transcript already
// holds the final answer.
type ChatDone struct {
	Token int
}

// ChatFailed means the stream ended abnormally. The session decides
// between the apology body and the interrupted suffix based on what had
// accumulated.
type ChatFailed struct {
	Token int
	Err   error
}

func (ChatChunk) isEvent()  {}
func (ChatDone) isEvent()   {}
func (ChatFailed) isEvent() {}

// ChatClient is the slice of the API the stream consumer needs.
type ChatClient interface {
	Chat(ctx context.Context, videoID string, messages []api.ChatMessage) (*api.ChatStream, error)
}

// StreamTurn sends one conversation turn and consumes the chunked
// response in a background goroutine. Events arrive on the returned
// channel, which closes after ChatDone or ChatFailed. Cancel ctx to
// abandon the stream; the token guard in Session drops anything that
// still lands afterwards.
func StreamTurn(ctx context.Context, client ChatClient, token int, videoID string, history []api.ChatMessage) <-chan Event {
	ch := make(chan Event, 8)
	go func() {
		defer close(ch)

		stream, err := client.Chat(ctx, videoID, history)
		if err != nil {
			emitChat(ctx, ch, ChatFailed{Token: token, Err: err})
			return
		}
		defer stream.Close()

		var acc strings.Builder
		for {
			chunk, err := stream.Recv()
			if chunk != "" {
				acc.WriteString(chunk)
				if !emitChat(ctx, ch, ChatChunk{Token: token, Content: acc.String()}) {
					return
				}
			}
			if err == io.EOF {
				emitChat(ctx, ch, ChatDone{Token: token})
				return
			}
			if err != nil {
				emitChat(ctx, ch, ChatFailed{Token: token, Err: err})
				return
			}
		}
	}()
	return ch
}

func emitChat(ctx context.Context, ch chan<- Event, ev Event) bool {
	select {
	case ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
