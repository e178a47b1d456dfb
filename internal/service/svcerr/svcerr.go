// Package svcerr приводит ошибки на границе сервисов к таксономии domain и журналирует их.
package svcerr

import (
	"errors"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
	"github.com/vladislavdragonenkov/orderdesk/internal/metrics"
)

// Reject возвращает ошибку, классифицированную ровно одной корневой категорией.
// Нарушения бизнес-правил пишутся как warning, сбои хранилища как error; сырая ошибка
// хранилища остаётся только в журнале.
func Reject(logger *log.Entry, m *metrics.OrderMetrics, op string, err error, fields log.Fields) error {
	if err == nil {
		return nil
	}

	classified := domain.PersistenceError(op, err)
	kind := domain.Kind(classified)

	entry := logger.WithFields(fields).WithField("operation", op)
	if errors.Is(kind, domain.ErrPersistence) {
		entry.WithError(err).Error("storage failure")
	} else {
		entry.WithError(classified).Warn("operation rejected")
	}
	m.RecordRejection(op, kind.Error())

	return classified
}
