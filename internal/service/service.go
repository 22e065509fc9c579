package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/peer_tutoring/internal/model"
	"go.uber.org/zap"
)

// failure логирует ошибку хранилища и скрывает детали от клиента
func failure(logger *zap.Logger, op string, err error, fields ...zap.Field) error {
	logger.Error(op+" failed", append(fields, zap.Error(err))...)
	return internal(fmt.Errorf("%s: %w", op, err))
}

// notify доставляет событие, ошибка только логируется
func notify(ctx context.Context, logger *zap.Logger, event string, fn func(ctx context.Context) error) {
	if err := fn(ctx); err != nil {
		logger.Warn("Failed to deliver event", zap.String("event", event), zap.Error(err))
	}
}

func requireActor(actor model.Actor) error {
	if !actor.Authenticated() {
		return unauthorized()
	}
	return nil
}
