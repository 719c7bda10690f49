package engine

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/njmcode/nidc2021-textadv/engine"

// Metrics holds the engine's instruments. All fields are safe for
// concurrent use.
type Metrics struct {
	// Commands counts recognised inputs. Attribute: command.
	Commands metric.Int64Counter
	// Unknown counts inputs with no recognised verb.
	Unknown metric.Int64Counter
	// Turns counts turn advances.
	Turns metric.Int64Counter
	// Transitions counts location changes. Attribute: outcome (moved, vetoed).
	Transitions metric.Int64Counter
	// Games counts started and ended games. Attribute: event.
	Games metric.Int64Counter
}

// NewMetrics creates the engine instruments on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Commands, err = m.Int64Counter("textadv.commands",
		metric.WithDescription("Recognised player commands."),
	); err != nil {
		return nil, err
	}
	if met.Unknown, err = m.Int64Counter("textadv.commands.unknown",
		metric.WithDescription("Inputs with no recognised verb."),
	); err != nil {
		return nil, err
	}
	if met.Turns, err = m.Int64Counter("textadv.turns",
		metric.WithDescription("Turn advances."),
	); err != nil {
		return nil, err
	}
	if met.Transitions, err = m.Int64Counter("textadv.transitions",
		metric.WithDescription("Location transitions by outcome."),
	); err != nil {
		return nil, err
	}
	if met.Games, err = m.Int64Counter("textadv.games",
		metric.WithDescription("Game lifecycle events."),
	); err != nil {
		return nil, err
	}
	return met, nil
}

// defaultMetrics uses the global provider, a no-op unless the binary
// installs one.
func defaultMetrics() *Metrics {
	met, err := NewMetrics(otel.GetMeterProvider())
	if err != nil {
		panic(err)
	}
	return met
}

func (m *Metrics) command(name string) {
	m.Commands.Add(context.Background(), 1, metric.WithAttributes(attribute.String("command", name)))
}

func (m *Metrics) unknown() {
	m.Unknown.Add(context.Background(), 1)
}

func (m *Metrics) turn() {
	m.Turns.Add(context.Background(), 1)
}

func (m *Metrics) transition(outcome string) {
	m.Transitions.Add(context.Background(), 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *Metrics) game(event string) {
	m.Games.Add(context.Background(), 1, metric.WithAttributes(attribute.String("event", event)))
}
