package checkout

import (
	"time"

	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/event"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/gateway"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/repository"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/pkg/apperror"
)

type Deps struct {
	UoW       repository.UnitOfWork
	Gateways  gateway.Resolver
	Publisher event.Publisher
	Clock     func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Publisher == nil {
		d.Publisher = event.NopPublisher{}
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	return d
}

// gatewayError приводит ошибку провайдера к коду GATEWAY_ERROR, если она ещё не типизирована.
func gatewayError(err error, message string) error {
	if apperror.CodeOf(err) != "" {
		return err
	}
	return apperror.Wrap(err, apperror.ErrCodeGateway, message)
}
