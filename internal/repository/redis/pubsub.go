package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// TicketsPubSub broadcasts ticket-state changes (reservation, activation,
// expiry) so external collaborators such as live availability views can
// refresh without polling.
type TicketsPubSub struct {
	rdb     *redis.Client
	channel string
}

func NewTicketsPubSub(rdb *redis.Client) *TicketsPubSub {
	return &TicketsPubSub{
		rdb:     rdb,
		channel: ChannelTicketsChanged(),
	}
}

type ticketChangedMsg struct {
	Type   string `json:"type"`
	Number string `json:"number"`
	TsUnix int64  `json:"ts_unix"`
}

func (p *TicketsPubSub) PublishTicketChanged(ctx context.Context, number string) error {
	msg := ticketChangedMsg{
		Type:   "ticket_changed",
		Number: number,
		TsUnix: time.Now().Unix(),
	}

	b, _ := json.Marshal(msg)

	return p.rdb.Publish(ctx, p.channel, b).Err()
}

func (p *TicketsPubSub) Subscribe(ctx context.Context, handler func(ctx context.Context, number string)) error {
	sub := p.rdb.Subscribe(ctx, p.channel)
	defer sub.Close()

	ch := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var ev ticketChangedMsg
			if err := json.Unmarshal([]byte(m.Payload), &ev); err == nil &&
				ev.Number != "" {
				handler(ctx, ev.Number)
			}
		}
	}
}
