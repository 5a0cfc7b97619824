package queue

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/sksmith/bunnyq"
	"github.com/sksmith/go-commerce/core/inventory"
	"github.com/sksmith/go-commerce/core/order"
	"github.com/streadway/amqp"
)

// EventQueue publishes inventory and order changes to their fanout exchanges.
type EventQueue struct {
	queue             *bunnyq.BunnyQ
	inventoryExchange string
	orderExchange     string
}

func New(bq *bunnyq.BunnyQ, inventoryExchange, orderExchange string) *EventQueue {
	return &EventQueue{queue: bq, inventoryExchange: inventoryExchange, orderExchange: orderExchange}
}

func (e *EventQueue) PublishInventory(ctx context.Context, record inventory.InventoryRecord) error {
	body, err := json.Marshal(record)
	if err != nil {
		return errors.WithMessage(err, "failed to serialize inventory message")
	}
	if err = e.queue.Publish(ctx, e.inventoryExchange, body); err != nil {
		return errors.WithMessage(err, "failed to send inventory update to queue")
	}
	return nil
}

func (e *EventQueue) PublishOrder(ctx context.Context, o order.Order) error {
	body, err := json.Marshal(o)
	if err != nil {
		return errors.WithMessage(err, "failed to serialize order message")
	}
	if err = e.queue.Publish(ctx, e.orderExchange, body); err != nil {
		return errors.WithMessage(err, "failed to send order update to queue")
	}
	return nil
}

// ProductMessage is the payload expected on the product queue.
type ProductMessage struct {
	Product  inventory.Product       `json:"product"`
	Settings inventory.StockSettings `json:"settings"`
}

type ProductHandler interface {
	CreateProduct(ctx context.Context, product inventory.Product, settings inventory.StockSettings) (inventory.Product, error)
}

type ProductQueue struct {
	queue       *bunnyq.BunnyQ
	productQ    string
	dltExchange string
}

func NewProductQueue(bq *bunnyq.BunnyQ, productQueue, dltExchange string) *ProductQueue {
	return &ProductQueue{queue: bq, productQ: productQueue, dltExchange: dltExchange}
}

// ConsumeProducts blocks until ctx is cancelled, creating a product for every
// delivery. Messages that cannot be handled are forwarded to the dead letter
// exchange.
func (p *ProductQueue) ConsumeProducts(ctx context.Context, handler ProductHandler) {
	p.queue.Stream(ctx, p.productQ, func(d amqp.Delivery) {
		if err := HandleProductMessage(ctx, d.Body, handler); err != nil {
			log.Error().Err(err).Str("queue", p.productQ).Msg("failed to handle product message")
			p.deadLetter(ctx, d.Body)
		}
	}, bunnyq.StreamOpAutoAck)
}

func (p *ProductQueue) deadLetter(ctx context.Context, body []byte) {
	if err := p.queue.Publish(ctx, p.dltExchange, body); err != nil {
		log.Error().Err(err).Str("exchange", p.dltExchange).Msg("failed to publish to dead letter exchange")
	}
}

// HandleProductMessage decodes a single product message and hands it to the
// handler.
func HandleProductMessage(ctx context.Context, body []byte, handler ProductHandler) error {
	msg := ProductMessage{}
	if err := json.Unmarshal(body, &msg); err != nil {
		return errors.WithMessage(err, "failed to decode product message")
	}
	if _, err := handler.CreateProduct(ctx, msg.Product, msg.Settings); err != nil {
		return errors.WithMessagef(err, "failed to create product sku=%s", msg.Product.Sku)
	}
	return nil
}
