package service

import (
	"context"

	"github.com/sepehr-data/mithra-pay/pkg/models"
)

// StubGateway approves every charge without contacting a provider.
type StubGateway struct{}

func (StubGateway) Charge(_ context.Context, order *models.Order) (string, error) {
	return "STUB-" + order.OrderNumber, nil
}
