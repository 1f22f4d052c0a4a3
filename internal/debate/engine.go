// Package debate runs multi-participant debates over a shared message
// history: N rounds of sequential turn-taking followed by a synthesis pass.
package debate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robertpelloni/jules-app/internal/keeper"
	"github.com/robertpelloni/jules-app/internal/model"
	"github.com/robertpelloni/jules-app/internal/model/contract"

	"github.com/oklog/ulid/v2"
)

// Participant is one configured debate voice. Stateless beyond its fields.
type Participant struct {
	ID           string `json:"id" koanf:"id"`
	Name         string `json:"name" koanf:"name"`
	Role         string `json:"role" koanf:"role"`
	Provider     string `json:"provider" koanf:"provider"`
	Model        string `json:"model" koanf:"model"`
	APIKey       string `json:"apiKey" koanf:"api_key"`
	Instructions string `json:"instructions" koanf:"instructions"`
}

// Turn is one participant's contribution within a round. Err is set instead
// of Content when the turn failed; failed turns never extend the shared
// history.
type Turn struct {
	ParticipantID string    `json:"participantId"`
	Name          string    `json:"name"`
	Role          string    `json:"role"`
	Content       string    `json:"content"`
	Err           string    `json:"error,omitempty"`
	Time          time.Time `json:"time"`
}

// Request describes one debate invocation.
type Request struct {
	SessionID    string
	Topic        string
	Rounds       int
	Participants []Participant
	History      []contract.Message
}

// Output carries the per-round turns, the synthesized verdict, the final
// shared history and the archival record.
type Output struct {
	Rounds  [][]Turn
	Summary string
	History []contract.Message
	Result  keeper.DebateResult
}

// Completer is the provider surface the engine needs: resolution plus one
// completion call.
type Completer interface {
	Complete(ctx context.Context, provider string, req contract.CompletionRequest) (*contract.CompletionResponse, error)
	Lookup(name string) (model.Provider, bool)
}

const (
	defaultRounds   = 2
	debateMaxTokens = 1000

	conferenceTopic = "Quick conference check"
)

// Engine orchestrates debates. Turns within a round are strictly sequential
// so each participant observes everything said before them.
type Engine struct {
	completer Completer
	now       func() time.Time
}

func New(completer Completer) *Engine {
	return &Engine{completer: completer, now: time.Now}
}

// RunDebate runs the full multi-round debate and synthesis.
func (e *Engine) RunDebate(ctx context.Context, req Request) (*Output, error) {
	return e.run(ctx, req, keeper.ModeDebate)
}

// RunConference is the single-round variant for quick ad hoc checks.
func (e *Engine) RunConference(ctx context.Context, req Request) (*Output, error) {
	req.Rounds = 1
	if req.Topic == "" {
		req.Topic = conferenceTopic
	}
	return e.run(ctx, req, keeper.ModeConference)
}

func (e *Engine) run(ctx context.Context, req Request, mode keeper.DebateMode) (*Output, error) {
	rounds := req.Rounds
	if rounds <= 0 {
		rounds = defaultRounds
	}

	// The caller's history is never mutated.
	history := make([]contract.Message, len(req.History))
	copy(history, req.History)

	out := &Output{Rounds: make([][]Turn, 0, rounds)}

	for round := 1; round <= rounds; round++ {
		turns := make([]Turn, 0, len(req.Participants))
		for _, p := range req.Participants {
			turn, msg, ok := e.takeTurn(ctx, p, req.Topic, history)
			if turn == nil {
				continue
			}
			turns = append(turns, *turn)
			if ok {
				history = append(history, msg)
			}
		}
		out.Rounds = append(out.Rounds, turns)
	}

	out.Summary = e.synthesize(ctx, req, history)
	out.History = history
	out.Result = e.buildResult(req, mode, out)

	return out, nil
}

// takeTurn runs one participant's turn. A nil turn means the participant was
// skipped entirely (unregistered provider); ok reports whether the shared
// history should grow.
func (e *Engine) takeTurn(ctx context.Context, p Participant, topic string, history []contract.Message) (*Turn, contract.Message, bool) {
	if _, found := e.completer.Lookup(p.Provider); !found {
		slog.Warn("Debate participant skipped, provider not registered", "participant", p.Name, "provider", p.Provider)
		return nil, contract.Message{}, false
	}

	resp, err := e.completer.Complete(ctx, p.Provider, contract.CompletionRequest{
		Model:     p.Model,
		APIKey:    p.APIKey,
		System:    participantSystemPrompt(p, topic),
		Messages:  history,
		MaxTokens: debateMaxTokens,
	})

	turn := Turn{
		ParticipantID: p.ID,
		Name:          p.Name,
		Role:          p.Role,
		Time:          e.now(),
	}
	if err != nil {
		slog.Warn("Debate turn failed", "participant", p.Name, "error", err)
		turn.Err = err.Error()
		return &turn, contract.Message{}, false
	}

	turn.Content = resp.Content
	msg := contract.Message{
		Role:    "assistant",
		Name:    p.ID,
		Content: fmt.Sprintf("%s (%s): %s", p.Name, p.Role, resp.Content),
	}
	return &turn, msg, true
}

func participantSystemPrompt(p Participant, topic string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, participating in a technical debate as the %s.\n", p.Name, p.Role)
	if p.Instructions != "" {
		fmt.Fprintf(&b, "Your instructions: %s\n", p.Instructions)
	}
	if topic != "" {
		fmt.Fprintf(&b, "The debate topic is: %s\n", topic)
	}
	b.WriteString("Respond to the discussion so far. Be concise and substantive. Address other participants' points directly when you disagree.")
	return b.String()
}

const synthesisPrompt = "The debate has concluded. Produce a Markdown summary of the discussion with these sections: " +
	"a brief summary of each participant's argument, the points of consensus and disagreement, " +
	"and a final recommendation."

// synthesize asks the first resolvable participant to summarize the debate,
// falling back through the list. With no resolvable participant at all it
// returns the static completion message without any provider call.
func (e *Engine) synthesize(ctx context.Context, req Request, history []contract.Message) string {
	var lastErr error
	for _, p := range req.Participants {
		if _, found := e.completer.Lookup(p.Provider); !found {
			continue
		}
		resp, err := e.completer.Complete(ctx, p.Provider, contract.CompletionRequest{
			Model:     p.Model,
			APIKey:    p.APIKey,
			System:    synthesisPrompt,
			Messages:  history,
			MaxTokens: debateMaxTokens,
		})
		if err != nil {
			lastErr = err
			slog.Warn("Debate synthesis failed, trying next participant", "participant", p.Name, "error", err)
			continue
		}
		return resp.Content
	}

	if lastErr != nil {
		return fmt.Sprintf("Debate completed, but the summary could not be generated: %v", lastErr)
	}
	return "Debate completed."
}

func (e *Engine) buildResult(req Request, mode keeper.DebateMode, out *Output) keeper.DebateResult {
	opinions := make([]keeper.Opinion, 0)
	for _, round := range out.Rounds {
		for _, turn := range round {
			p := participantByID(req.Participants, turn.ParticipantID)
			opinions = append(opinions, keeper.Opinion{
				Provider: p.Provider,
				Model:    p.Model,
				Role:     turn.Role,
				Content:  turn.Content,
				Err:      turn.Err,
			})
		}
	}
	return keeper.DebateResult{
		ID:               ulid.Make().String(),
		SessionID:        req.SessionID,
		Time:             e.now(),
		Mode:             mode,
		Opinions:         opinions,
		FinalInstruction: out.Summary,
	}
}

func participantByID(participants []Participant, id string) Participant {
	for _, p := range participants {
		if p.ID == id {
			return p
		}
	}
	return Participant{}
}
