package app

import (
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/medisupply/sales/internal/messaging/kafka"
)

// initKafkaProducer создаёт producer, если список брокеров не пуст.
// Пустой список — штатный режим без Kafka, не ошибка.
func initKafkaProducer(brokers string, logger *log.Entry) (*kafka.Producer, error) {
	if strings.TrimSpace(brokers) == "" {
		return nil, nil
	}

	brokerList := strings.Split(brokers, ",")
	for i := range brokerList {
		brokerList[i] = strings.TrimSpace(brokerList[i])
	}

	producer, err := kafka.NewProducer(brokerList)
	if err != nil {
		return nil, err
	}

	logger.WithField("brokers", brokerList).Info("kafka producer initialized")
	return producer, nil
}
