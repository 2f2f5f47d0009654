package settlement

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/event"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/repository"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/logger"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/metrics"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/pkg/apperror"
)

// Deps — общие зависимости use case'ов расчёта по escrow.
type Deps struct {
	UoW       repository.UnitOfWork
	Publisher event.Publisher
	// Clock подменяется в тестах; по умолчанию time.Now.
	Clock func() time.Time
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

// reportIntegrity логирует нарушение инварианта хранилища. Такие ошибки не проглатываются.
func reportIntegrity(operation string, err error, fields logrus.Fields) {
	if !apperror.IsIntegrity(err) {
		return
	}
	metrics.Settlement().ObserveIntegrityError(operation)
	if fields == nil {
		fields = logrus.Fields{}
	}
	fields["operation"] = operation
	fields["error"] = err.Error()
	logger.Log.WithFields(fields).Error("нарушен инвариант escrow")
}
