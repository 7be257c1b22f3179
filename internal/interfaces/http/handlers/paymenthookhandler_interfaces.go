package handlers

import (
	"context"

	"github.com/hatchery-inc/hatchery/internal/application/instance/usecases"
)

type handlePaymentSuccessUseCase interface {
	Execute(ctx context.Context, orderNo string) (*usecases.ProvisionResult, error)
}
