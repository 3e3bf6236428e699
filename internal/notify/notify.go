// Copyright (c) 2026 Andi Zeiri
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package notify broadcasts load-collection change events over Redis
// pub/sub. The event carries no payload beyond its name: listeners
// re-fetch the collection instead of assuming any ordering relative to
// the write.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the pub/sub channel dashboard screens subscribe to.
const DefaultChannel = "tms:loads:changed"

// loadsChangedEvent is the message body. Listeners only dispatch on it.
const loadsChangedEvent = "loads.changed"

// RedisNotifier publishes change events to a Redis channel.
type RedisNotifier struct {
	rdb     *redis.Client
	channel string
}

// NewRedisNotifier creates a notifier targeting the given channel.
// An empty channel falls back to DefaultChannel.
func NewRedisNotifier(rdb *redis.Client, channel string) *RedisNotifier {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisNotifier{
		rdb:     rdb,
		channel: channel,
	}
}

// LoadsChanged announces that the load collection changed. Delivery is
// best effort: failures are logged, never propagated, and no listener
// acknowledgment is awaited.
func (n *RedisNotifier) LoadsChanged(ctx context.Context) {
	receivers, err := n.rdb.Publish(ctx, n.channel, loadsChangedEvent).Result()
	if err != nil {
		slog.Warn("loads-changed publish failed",
			"channel", n.channel,
			"error", err,
		)
		return
	}
	slog.Debug("loads-changed published",
		"channel", n.channel,
		"receivers", receivers,
	)
}

// Ping checks the Redis connection.
func (n *RedisNotifier) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return n.rdb.Ping(ctx).Err()
}
