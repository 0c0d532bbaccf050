package chat

import (
	"context"

	"github.com/suPer8Hu/chat-exchange/internal/logger"
	"go.uber.org/zap"
)

// Generator is the provider side of an exchange.
type Generator interface {
	Supports(modelTag string) bool
	Tags() []string
	Generate(ctx context.Context, modelTag, prompt string) (string, error)
}

type Service struct {
	store Store
	gen   Generator
}

func NewService(store Store, gen Generator) *Service {
	return &Service{store: store, gen: gen}
}

// Models lists the model tags Send accepts.
func (s *Service) Models() []string {
	return s.gen.Tags()
}

// Send runs one exchange: record the user turn, call the provider, record the
// outcome turn. Nothing is written unless the caller is identified, the prompt
// is non-empty and the model tag is allow-listed. Once started the exchange is
// not cancelled by ctx.
func (s *Service) Send(ctx context.Context, userID, modelTag, prompt string) (*Reply, error) {
	if userID == "" {
		return nil, newError(CodeUnauthenticated, "authentication required", nil)
	}
	if prompt == "" {
		return nil, newError(CodeInvalidArgument, "prompt must not be empty", nil)
	}
	if !s.gen.Supports(modelTag) {
		return nil, newError(CodeUnsupportedModel, "unsupported model: "+modelTag, nil)
	}

	ctx = context.WithoutCancel(ctx)
	log := logger.WithCtx(ctx).With(zap.String("user_id", userID), zap.String("model_tag", modelTag))

	// 1) user turn; without it there is nothing to pair an outcome with
	userTurn := &Turn{UserID: userID, ModelTag: modelTag, Role: RoleUser, Content: prompt}
	if err := s.store.InsertTurn(ctx, userTurn); err != nil {
		log.Error("insert user turn failed", zap.Error(err))
		return nil, newError(CodePersistence, "failed to save message", err)
	}

	// 2) provider call
	reply, genErr := s.gen.Generate(ctx, modelTag, prompt)
	if genErr != nil {
		log.Warn("generation failed", zap.String("user_turn_id", userTurn.ID), zap.Error(genErr))
		s.recordFailure(ctx, log, userID, modelTag)
		return nil, newError(CodeGeneration, "failed to generate response", genErr)
	}

	// 3) assistant turn; the stored log is authoritative, so an unrecorded reply is a failure
	assistantTurn := &Turn{UserID: userID, ModelTag: modelTag, Role: RoleAssistant, Content: reply}
	if err := s.store.InsertTurn(ctx, assistantTurn); err != nil {
		log.Error("insert assistant turn failed", zap.String("user_turn_id", userTurn.ID), zap.Error(err))
		s.recordFailure(ctx, log, userID, modelTag)
		return nil, newError(CodePersistence, "failed to save response", err)
	}

	return &Reply{Role: RoleAssistant, Content: assistantTurn.Content}, nil
}

// recordFailure appends the fixed error turn. Its own failure is only logged.
func (s *Service) recordFailure(ctx context.Context, log *zap.Logger, userID, modelTag string) {
	errTurn := &Turn{UserID: userID, ModelTag: modelTag, Role: RoleError, Content: GenerationFailedMessage}
	if err := s.store.InsertTurn(ctx, errTurn); err != nil {
		log.Error("insert error turn failed", zap.Error(err))
	}
}

// History returns every turn owned by userID, oldest first. It never returns nil
// on success.
func (s *Service) History(ctx context.Context, userID string) ([]Turn, error) {
	if userID == "" {
		return nil, newError(CodeUnauthenticated, "authentication required", nil)
	}
	turns, err := s.store.ListTurnsByUser(ctx, userID)
	if err != nil {
		logger.WithCtx(ctx).Error("list turns failed", zap.String("user_id", userID), zap.Error(err))
		return nil, newError(CodePersistence, "failed to load history", err)
	}
	if turns == nil {
		turns = []Turn{}
	}
	return turns, nil
}
