package commands

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"dopesheet/domain/events"
	"dopesheet/pkg/observability"
)

// Stack is the undo stack. Pushing runs the command, then tries to merge it
// into the command on top; commands above the top are discarded.
type Stack struct {
	commands []Command
	// number of applied commands
	index int
	limit int

	publisher events.Publisher
	metrics   *observability.Collector
	logger    *zap.Logger
}

// NewStack creates an undo stack keeping at most limit commands, 0 for no limit
func NewStack(limit int, publisher events.Publisher, metrics *observability.Collector, logger *zap.Logger) *Stack {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Stack{
		limit:     limit,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

// Push applies cmd and records it
func (s *Stack) Push(ctx context.Context, cmd Command) {
	if cmd == nil {
		return
	}
	_, span := observability.StartSpan(ctx, "undo_stack.push",
		attribute.String("command", cmd.Name()),
		attribute.Int("command_id", cmd.ID()),
	)
	defer observability.EndSpan(span, nil)

	cmd.Redo()

	// the redo tail is dropped whatever happens next
	for i := s.index; i < len(s.commands); i++ {
		s.commands[i] = nil
	}
	s.commands = s.commands[:s.index]

	merged := false
	if s.index > 0 && cmd.ID() != NoMergeID {
		top := s.commands[s.index-1]
		if top.ID() == cmd.ID() && top.MergeWith(cmd) {
			merged = true
		}
	}
	if !merged {
		s.commands = append(s.commands, cmd)
		s.index++
		s.enforceLimit()
	}

	span.SetAttributes(attribute.Bool("merged", merged))
	s.metrics.RecordPush(cmd.Name(), merged, s.index)
	s.logger.Debug("Command pushed",
		zap.String("command", cmd.Name()),
		zap.Bool("merged", merged),
		zap.Int("depth", s.index),
	)
	s.publish(cmd, false)
}

// Undo reverts the last applied command. It returns false when there is none.
func (s *Stack) Undo(ctx context.Context) bool {
	if !s.CanUndo() {
		return false
	}
	cmd := s.commands[s.index-1]
	_, span := observability.StartSpan(ctx, "undo_stack.undo", attribute.String("command", cmd.Name()))
	defer observability.EndSpan(span, nil)

	cmd.Undo()
	s.index--

	s.metrics.RecordUndo()
	s.metrics.RecordUndoDepth(s.index)
	s.logger.Debug("Command undone", zap.String("command", cmd.Name()), zap.Int("depth", s.index))
	s.publish(cmd, true)
	return true
}

// Redo reapplies the last undone command. It returns false when there is none.
func (s *Stack) Redo(ctx context.Context) bool {
	if !s.CanRedo() {
		return false
	}
	cmd := s.commands[s.index]
	_, span := observability.StartSpan(ctx, "undo_stack.redo", attribute.String("command", cmd.Name()))
	defer observability.EndSpan(span, nil)

	cmd.Redo()
	s.index++

	s.metrics.RecordRedo()
	s.metrics.RecordUndoDepth(s.index)
	s.logger.Debug("Command redone", zap.String("command", cmd.Name()), zap.Int("depth", s.index))
	s.publish(cmd, false)
	return true
}

// CanUndo reports whether a command can be undone
func (s *Stack) CanUndo() bool { return s.index > 0 }

// CanRedo reports whether a command can be redone
func (s *Stack) CanRedo() bool { return s.index < len(s.commands) }

// Len returns the number of recorded commands, undone ones included
func (s *Stack) Len() int { return len(s.commands) }

// Index returns the number of applied commands
func (s *Stack) Index() int { return s.index }

// UndoText names the command Undo would revert
func (s *Stack) UndoText() string {
	if !s.CanUndo() {
		return ""
	}
	return s.commands[s.index-1].Name()
}

// RedoText names the command Redo would reapply
func (s *Stack) RedoText() string {
	if !s.CanRedo() {
		return ""
	}
	return s.commands[s.index].Name()
}

// Limit returns the maximum number of kept commands, 0 for no limit
func (s *Stack) Limit() int { return s.limit }

// SetLimit changes the maximum number of kept commands. The oldest applied
// commands go first, then the far end of the redo tail.
func (s *Stack) SetLimit(limit int) {
	if limit < 0 {
		limit = 0
	}
	s.limit = limit
	s.enforceLimit()
}

func (s *Stack) enforceLimit() {
	if s.limit <= 0 || len(s.commands) <= s.limit {
		return
	}
	drop := len(s.commands) - s.limit
	if drop > s.index {
		drop = s.index
	}
	s.commands = append(s.commands[:0:0], s.commands[drop:]...)
	s.index -= drop
	if len(s.commands) > s.limit {
		s.commands = s.commands[:s.limit]
	}
	s.metrics.RecordUndoDepth(s.index)
}

// Names returns the names of the recorded commands, oldest first
func (s *Stack) Names() []string {
	names := make([]string, len(s.commands))
	for i, cmd := range s.commands {
		names[i] = cmd.Name()
	}
	return names
}

// Clear forgets every command without reverting anything
func (s *Stack) Clear() {
	s.commands = nil
	s.index = 0
	s.metrics.RecordUndoDepth(0)
}

func (s *Stack) publish(cmd Command, undo bool) {
	if s.publisher != nil {
		s.publisher.Publish(events.NewKeyframeSetOrRemoved(cmd.Name(), undo))
	}
}
