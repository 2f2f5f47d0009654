package bidding

import (
	"time"

	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/event"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/repository"
)

type Deps struct {
	UoW       repository.UnitOfWork
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
