// Package events publishes domain events about completed orders.
package events

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"time"

	"github.com/rogerio-castellano/storefront/internal/models"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

const OrderPlacedType = "order.placed"

type OrderPlacedItem struct {
	ProductID int             `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type OrderPlaced struct {
	OrderID            int               `json:"order_id"`
	Owner              string            `json:"owner"`
	TotalAmount        decimal.Decimal   `json:"total_amount"`
	TotalItems         int               `json:"total_items"`
	Items              []OrderPlacedItem `json:"items"`
	LowStockProductIDs []int             `json:"low_stock_product_ids"`
	CreatedAt          time.Time         `json:"created_at"`
}

func NewOrderPlaced(o models.Order, lowStockIDs []int) OrderPlaced {
	owner := models.Identity{}
	if o.UserID != nil {
		owner = models.UserIdentity(*o.UserID)
	} else if o.SessionID != nil {
		owner = models.SessionIdentity(*o.SessionID)
	}

	e := OrderPlaced{
		OrderID:            o.ID,
		Owner:              owner.Key(),
		TotalAmount:        o.TotalAmount,
		TotalItems:         o.TotalItems,
		Items:              make([]OrderPlacedItem, 0, len(o.Items)),
		LowStockProductIDs: append([]int{}, lowStockIDs...),
		CreatedAt:          o.CreatedAt,
	}
	for _, it := range o.Items {
		e.Items = append(e.Items, OrderPlacedItem{
			ProductID: it.ProductID,
			Name:      it.ProductName,
			Price:     it.ProductPrice,
			Quantity:  it.Quantity,
			Subtotal:  it.Subtotal,
		})
	}
	return e
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes order events keyed by order id, so every event of
// an order lands on the same partition.
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher returns a publisher with an asynchronous writer:
// PublishOrderPlaced returns once the message is buffered and delivery
// errors are logged.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		Async:                  true,
		BatchTimeout:           50 * time.Millisecond,
		Completion: func(msgs []kafka.Message, err error) {
			if err != nil {
				log.Printf("❌ Failed to deliver %d order event(s): %v", len(msgs), err)
			}
		},
	}
	return &KafkaPublisher{writer: w}
}

func (p *KafkaPublisher) PublishOrderPlaced(ctx context.Context, o models.Order, lowStockIDs []int) error {
	payload, err := json.Marshal(NewOrderPlaced(o, lowStockIDs))
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.Itoa(o.ID)),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(OrderPlacedType)},
		},
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops events; used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) PublishOrderPlaced(context.Context, models.Order, []int) error { return nil }

func (NopPublisher) Close() error { return nil }
