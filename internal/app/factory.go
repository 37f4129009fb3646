package app

import (
	"net/http"

	"github.com/annalza/mint-stock-flow/internal/events"
	"github.com/annalza/mint-stock-flow/internal/httpapi"
	"github.com/annalza/mint-stock-flow/internal/operations"
)

// ServiceFactory creates business logic services with their dependencies
type ServiceFactory struct {
	container *Container
}

// NewServiceFactory creates a new service factory
func NewServiceFactory(container *Container) *ServiceFactory {
	return &ServiceFactory{
		container: container,
	}
}

// CreatePublisher fans committed events out to websocket clients and, when Kafka is
// configured, the stock events topic.
func (f *ServiceFactory) CreatePublisher() events.Publisher {
	publishers := events.FanOut{f.container.Hub()}
	if producer := f.container.MessageProducer(); producer != nil {
		publishers = append(publishers, events.NewKafkaPublisher(producer, f.container.Logger()))
	}
	return publishers
}

// CreateOperations creates the operations facade over an empty core
func (f *ServiceFactory) CreateOperations() (*operations.Service, error) {
	return operations.NewService(operations.Deps{
		Logger:    f.container.Logger(),
		Tracer:    f.container.Tracer(),
		Store:     f.container.Store(),
		Locker:    f.container.Locker(),
		Publisher: f.CreatePublisher(),
		Strict:    f.container.Config().StrictIssue,
	})
}

// CreateConsumerService returns nil when Kafka is not configured
func (f *ServiceFactory) CreateConsumerService(receiver events.GoodsReceiver) events.ConsumerService {
	consumer := f.container.MessageConsumer()
	if consumer == nil {
		return nil
	}
	handler := events.NewMessageHandler(receiver, f.container.Logger())
	return events.NewConsumerService(consumer, handler, f.container.Logger())
}

// CreateHTTPServer creates the API server over the operations facade
func (f *ServiceFactory) CreateHTTPServer(ops httpapi.Operations) *http.Server {
	logger := f.container.Logger()
	router := httpapi.NewRouter(httpapi.NewHandler(ops, logger), f.container.Hub(), logger)
	return httpapi.NewServer(f.container.Config().HTTPAddr, router)
}
